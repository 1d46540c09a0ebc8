package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
)

// OrderRepository persists subscription box orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs the repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a box order.
func (r *OrderRepository) Create(ctx context.Context, order *models.BoxOrder) error {
	const query = `INSERT INTO box_orders (id, name, email, phone, address, packages, total, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Name, order.Email, order.Phone, order.Address, order.Packages, order.Total, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create box order: %w", err)
	}
	return nil
}

// List returns box orders newest first with simple paging.
func (r *OrderRepository) List(ctx context.Context, page, size int) ([]models.BoxOrder, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, name, email, phone, address, packages, total, created_at
        FROM box_orders ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, offset)

	var orders []models.BoxOrder
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, 0, fmt.Errorf("list box orders: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM box_orders"); err != nil {
		return nil, 0, fmt.Errorf("count box orders: %w", err)
	}
	return orders, total, nil
}
