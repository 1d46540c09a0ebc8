package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

const profileKeyPrefix = "profile:"

// ProfileRepository stores remembered contact details keyed by checkout
// session, replacing the browser-local storage the web client used to own.
type ProfileRepository struct {
	client *redis.Client
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(client *redis.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// Get loads the remembered contact details for a session.
func (r *ProfileRepository) Get(ctx context.Context, sessionID string) (*models.ContactProfile, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, profileKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get profile %s: %w", sessionID, err)
	}
	var profile models.ContactProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", sessionID, err)
	}
	return &profile, nil
}

// Save stores the remembered contact details. Profiles never expire; the
// user opted in explicitly.
func (r *ProfileRepository) Save(ctx context.Context, sessionID string, profile models.ContactProfile) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, profileKeyPrefix+sessionID, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set profile %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes the remembered details for a session.
func (r *ProfileRepository) Delete(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, profileKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete profile %s: %w", sessionID, err)
	}
	return nil
}
