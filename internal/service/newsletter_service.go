package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type newsletterGateway interface {
	SubscribeNewsletter(ctx context.Context, name, email string) (string, error)
}

// SubscribeRequest is a newsletter signup.
type SubscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

// NewsletterService proxies newsletter signups to the core API.
type NewsletterService struct {
	gateway   newsletterGateway
	enabled   bool
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsletterService constructs NewsletterService.
func NewNewsletterService(gw newsletterGateway, enabled bool, validate *validator.Validate, logger *zap.Logger) *NewsletterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsletterService{gateway: gw, enabled: enabled, validator: validate, logger: logger}
}

// Subscribe registers the signup upstream and reports the resulting status.
func (s *NewsletterService) Subscribe(ctx context.Context, req SubscribeRequest) (*models.NewsletterSubscription, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "newsletter signups are disabled")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a valid email is required")
	}

	email := strings.ToLower(req.Email)
	status, err := s.gateway.SubscribeNewsletter(ctx, strings.TrimSpace(req.Name), email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "could not subscribe right now, try again later")
	}

	s.logger.Info("newsletter signup", zap.String("email", email), zap.String("status", status))
	return &models.NewsletterSubscription{Email: email, Name: req.Name, Status: status}, nil
}
