package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type orderRepository interface {
	Create(ctx context.Context, order *models.BoxOrder) error
	List(ctx context.Context, page, size int) ([]models.BoxOrder, int, error)
}

// PlaceOrderRequest describes a subscription box order.
type PlaceOrderRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Phone    string         `json:"phone" validate:"required"`
	Address  string         `json:"address" validate:"required"`
	Packages map[string]int `json:"packages" validate:"required"`
}

// OrderService handles subscription box orders.
type OrderService struct {
	repo      orderRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService constructs OrderService.
func NewOrderService(repo orderRepository, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{repo: repo, validator: validate, logger: logger}
}

// Place validates and stores a box order. The total is always computed from
// the fixed tier catalog, never taken from the caller.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (*models.BoxOrder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	var total int64
	lines := make([]string, 0, len(req.Packages))
	for _, name := range []string{"StudyLite", "StudyPro"} {
		qty := req.Packages[name]
		if qty <= 0 {
			continue
		}
		pkg := models.BoxPackages[name]
		total += int64(qty) * pkg.Price
		lines = append(lines, fmt.Sprintf("%s x%d", name, qty))
	}
	for name := range req.Packages {
		if _, ok := models.BoxPackages[name]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown package "+name)
		}
	}
	if total == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one package")
	}

	order := &models.BoxOrder{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		Packages:  strings.Join(lines, ", "),
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save order")
	}

	s.logger.Info("box order placed", zap.String("order_id", order.ID), zap.Int64("total", total))
	return order, nil
}

// List returns box orders for the back office.
func (s *OrderService) List(ctx context.Context, page, size int) ([]models.BoxOrder, *models.Pagination, error) {
	orders, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return orders, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
