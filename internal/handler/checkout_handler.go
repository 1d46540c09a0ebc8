package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/dto"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/service"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type checkoutService interface {
	StartCheckout(ctx context.Context, sessionID string, draft models.EnrollmentDraft) (*models.PaymentAttempt, error)
	Snapshot(ctx context.Context, sessionID string) (*models.PaymentAttempt, error)
	ByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error)
	Cancel(ctx context.Context, sessionID string, reason models.CancelReason) (*models.PaymentAttempt, error)
}

// CheckoutHandler exposes the enrollment checkout endpoints.
type CheckoutHandler struct {
	service checkoutService
}

// NewCheckoutHandler builds a new handler.
func NewCheckoutHandler(service checkoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Start godoc
// @Summary Start an enrollment checkout
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Checkout session id"
// @Param payload body dto.StartCheckoutRequest true "Enrollment draft"
// @Success 201 {object} response.Envelope
// @Router /enrollments/checkout [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req dto.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checkout payload"))
		return
	}

	attempt, err := h.service.StartCheckout(c.Request.Context(), sessionFromContext(c), req.Draft())
	if err != nil {
		if fields := service.FieldErrors(err); fields != nil {
			appErr := appErrors.FromError(err)
			c.Header("Cache-Control", "no-store")
			c.JSON(appErr.Status, response.Envelope{
				Error: appErr,
				Meta:  map[string]interface{}{"fields": fields},
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCheckoutAttemptResponse(attempt))
}

// Status godoc
// @Summary Current checkout attempt for the session
// @Tags Checkout
// @Produce json
// @Param X-Session-ID header string true "Checkout session id"
// @Success 200 {object} response.Envelope
// @Router /enrollments/checkout/status [get]
func (h *CheckoutHandler) Status(c *gin.Context) {
	attempt, err := h.service.Snapshot(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCheckoutAttemptResponse(attempt), nil)
}

// ByReference godoc
// @Summary Checkout attempt by payment reference
// @Tags Checkout
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} response.Envelope
// @Router /enrollments/checkout/{reference} [get]
func (h *CheckoutHandler) ByReference(c *gin.Context) {
	attempt, err := h.service.ByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCheckoutAttemptResponse(attempt), nil)
}

// Cancel godoc
// @Summary Abandon the live checkout attempt
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Checkout session id"
// @Param payload body dto.CancelCheckoutRequest true "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Router /enrollments/checkout/cancel [post]
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	var req dto.CancelCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
		return
	}

	reason := models.CancelReason(req.Reason)
	switch reason {
	case models.CancelReasonUser, models.CancelReasonWindowClosed, models.CancelReasonWindowBlocked:
	case "":
		reason = models.CancelReasonUser
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown cancel reason"))
		return
	}

	attempt, err := h.service.Cancel(c.Request.Context(), sessionFromContext(c), reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCheckoutAttemptResponse(attempt), nil)
}
