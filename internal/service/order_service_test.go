package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type orderRepoStub struct {
	created []models.BoxOrder
	err     error
}

func (s *orderRepoStub) Create(ctx context.Context, order *models.BoxOrder) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *order)
	return nil
}

func (s *orderRepoStub) List(ctx context.Context, page, size int) ([]models.BoxOrder, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.created, len(s.created), nil
}

func validOrderRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+2348000000000",
		Address:  "12 Marina Rd, Lagos",
		Packages: map[string]int{"StudyLite": 1, "StudyPro": 2},
	}
}

func TestOrderServicePlaceComputesTotalFromCatalog(t *testing.T) {
	repo := &orderRepoStub{}
	svc := NewOrderService(repo, nil, nil)

	order, err := svc.Place(context.Background(), validOrderRequest())
	require.NoError(t, err)
	// StudyLite 10000 + StudyPro 2x15000.
	assert.Equal(t, int64(40000), order.Total)
	assert.Equal(t, "StudyLite x1, StudyPro x2", order.Packages)
	assert.NotEmpty(t, order.ID)
	require.Len(t, repo.created, 1)
}

func TestOrderServicePlaceRejectsUnknownPackage(t *testing.T) {
	svc := NewOrderService(&orderRepoStub{}, nil, nil)

	req := validOrderRequest()
	req.Packages = map[string]int{"StudyUltra": 1}
	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderServicePlaceRejectsEmptySelection(t *testing.T) {
	svc := NewOrderService(&orderRepoStub{}, nil, nil)

	req := validOrderRequest()
	req.Packages = map[string]int{"StudyLite": 0}
	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)
}

func TestOrderServicePlaceValidatesPayload(t *testing.T) {
	svc := NewOrderService(&orderRepoStub{}, nil, nil)

	req := validOrderRequest()
	req.Email = "not-an-email"
	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderServiceList(t *testing.T) {
	repo := &orderRepoStub{}
	svc := NewOrderService(repo, nil, nil)

	_, err := svc.Place(context.Background(), validOrderRequest())
	require.NoError(t, err)

	orders, pagination, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
