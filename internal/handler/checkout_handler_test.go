package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/dto"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/middleware"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type checkoutServiceMock struct {
	startResp  *models.PaymentAttempt
	startErr   error
	cancelResp *models.PaymentAttempt
	cancelErr  error
	lastReason models.CancelReason
}

func (m *checkoutServiceMock) StartCheckout(ctx context.Context, sessionID string, draft models.EnrollmentDraft) (*models.PaymentAttempt, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.startResp, nil
}

func (m *checkoutServiceMock) Snapshot(ctx context.Context, sessionID string) (*models.PaymentAttempt, error) {
	if m.startResp == nil {
		return nil, appErrors.ErrAttemptNotFound
	}
	return m.startResp, nil
}

func (m *checkoutServiceMock) ByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error) {
	if m.startResp == nil || m.startResp.Reference != reference {
		return nil, appErrors.ErrAttemptNotFound
	}
	return m.startResp, nil
}

func (m *checkoutServiceMock) Cancel(ctx context.Context, sessionID string, reason models.CancelReason) (*models.PaymentAttempt, error) {
	m.lastReason = reason
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	return m.cancelResp, nil
}

func newCheckoutTestContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextSessionKey, "sess-1")
	return c, w
}

func TestCheckoutHandlerStart(t *testing.T) {
	mock := &checkoutServiceMock{startResp: &models.PaymentAttempt{
		Reference:        "enroll_123",
		State:            models.AttemptStateAwaitingCheckout,
		AuthorizationURL: "https://checkout.example.com/abc",
		Amount:           35000,
		Currency:         "NGN",
	}}
	handler := NewCheckoutHandler(mock)

	c, w := newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout", dto.StartCheckoutRequest{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "+2348000000000",
		Quantities: map[string]int{"c1": 1},
	})
	handler.Start(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data dto.CheckoutAttemptResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "enroll_123", envelope.Data.Reference)
	assert.Equal(t, "awaiting_checkout", envelope.Data.State)
	assert.Equal(t, "https://checkout.example.com/abc", envelope.Data.AuthorizationURL)
}

func TestCheckoutHandlerStartInvalidBody(t *testing.T) {
	handler := NewCheckoutHandler(&checkoutServiceMock{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/checkout", bytes.NewReader([]byte(`not-json`)))
	c.Request = req
	c.Set(middleware.ContextSessionKey, "sess-1")

	handler.Start(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandlerStartFieldErrors(t *testing.T) {
	fieldErr := appErrors.Clone(appErrors.ErrValidation, "please correct the highlighted fields")
	mock := &checkoutServiceMock{startErr: fieldErr}
	handler := NewCheckoutHandler(mock)

	c, w := newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout", dto.StartCheckoutRequest{})
	handler.Start(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestCheckoutHandlerStartConflict(t *testing.T) {
	mock := &checkoutServiceMock{startErr: appErrors.ErrAttemptActive}
	handler := NewCheckoutHandler(mock)

	c, w := newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout", dto.StartCheckoutRequest{FirstName: "Jane"})
	handler.Start(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutHandlerCancelReasons(t *testing.T) {
	mock := &checkoutServiceMock{cancelResp: &models.PaymentAttempt{
		Reference: "enroll_123",
		State:     models.AttemptStateCancelled,
	}}
	handler := NewCheckoutHandler(mock)

	c, w := newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout/cancel", dto.CancelCheckoutRequest{Reason: "window_closed"})
	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CancelReasonWindowClosed, mock.lastReason)

	// Empty reason defaults to an explicit user cancel.
	c, w = newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout/cancel", dto.CancelCheckoutRequest{})
	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CancelReasonUser, mock.lastReason)
}

func TestCheckoutHandlerCancelUnknownReason(t *testing.T) {
	handler := NewCheckoutHandler(&checkoutServiceMock{})

	c, w := newCheckoutTestContext(t, http.MethodPost, "/enrollments/checkout/cancel", dto.CancelCheckoutRequest{Reason: "rage_quit"})
	handler.Cancel(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandlerStatusNotFound(t *testing.T) {
	handler := NewCheckoutHandler(&checkoutServiceMock{})

	c, w := newCheckoutTestContext(t, http.MethodGet, "/enrollments/checkout/status", nil)
	handler.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutHandlerByReference(t *testing.T) {
	mock := &checkoutServiceMock{startResp: &models.PaymentAttempt{
		Reference: "enroll_123",
		State:     models.AttemptStateCompleted,
	}}
	handler := NewCheckoutHandler(mock)

	c, w := newCheckoutTestContext(t, http.MethodGet, "/enrollments/checkout/enroll_123", nil)
	c.Params = gin.Params{{Key: "reference", Value: "enroll_123"}}
	handler.ByReference(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.CheckoutAttemptResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "completed", envelope.Data.State)
}
