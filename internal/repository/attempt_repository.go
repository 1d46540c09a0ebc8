package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
)

// AttemptRepository persists the audit trail of payment attempts. The live
// state machine runs in memory; rows here back the payment-history surface.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository constructs the repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new attempt row.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	const query = `INSERT INTO payment_attempts (reference, session_id, email, amount, currency, state, attempts_made, message, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		attempt.Reference, attempt.SessionID, attempt.Email, attempt.Amount, attempt.Currency,
		attempt.State, attempt.AttemptsMade, attempt.Message, attempt.CreatedAt, attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment attempt: %w", err)
	}
	return nil
}

// UpdateState records a state transition and the polls consumed so far.
func (r *AttemptRepository) UpdateState(ctx context.Context, reference string, state models.AttemptState, attemptsMade int, message string, updatedAt time.Time) error {
	const query = `UPDATE payment_attempts SET state = $2, attempts_made = $3, message = $4, updated_at = $5 WHERE reference = $1`
	if _, err := r.db.ExecContext(ctx, query, reference, state, attemptsMade, message, updatedAt); err != nil {
		return fmt.Errorf("update payment attempt %s: %w", reference, err)
	}
	return nil
}

// FindByReference returns a single attempt row.
func (r *AttemptRepository) FindByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error) {
	const query = `SELECT reference, session_id, email, amount, currency, state, attempts_made, message, created_at, updated_at
        FROM payment_attempts WHERE reference = $1`
	var attempt models.PaymentAttempt
	if err := r.db.GetContext(ctx, &attempt, query, reference); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// AttemptFilter narrows the payment-history listing.
type AttemptFilter struct {
	Email    string
	State    models.AttemptState
	Page     int
	PageSize int
}

// List returns attempts matching the filter, newest first.
func (r *AttemptRepository) List(ctx context.Context, filter AttemptFilter) ([]models.PaymentAttempt, int, error) {
	base := `FROM payment_attempts`
	var conditions []string
	var args []interface{}

	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)+1))
		args = append(args, filter.Email)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT reference, session_id, email, amount, currency, state, attempts_made, message, created_at, updated_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var attempts []models.PaymentAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payment attempts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payment attempts: %w", err)
	}
	return attempts, total, nil
}
