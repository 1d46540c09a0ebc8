package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/dto"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/repository"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/service"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type paymentHistory interface {
	List(ctx context.Context, filter repository.AttemptFilter) ([]models.PaymentAttempt, int, error)
}

type orderHistory interface {
	List(ctx context.Context, page, size int) ([]models.BoxOrder, *models.Pagination, error)
}

type paymentExporter interface {
	ExportPayments(ctx context.Context, format string, filter repository.AttemptFilter) (*service.ExportResult, error)
}

type receiptIssuer interface {
	SignedDownload(reference string) (string, time.Time, error)
}

// AdminHandler serves the back-office surfaces: payment history, box orders,
// exports and receipt links.
type AdminHandler struct {
	payments paymentHistory
	orders   orderHistory
	exports  paymentExporter
	receipts receiptIssuer
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(payments paymentHistory, orders orderHistory, exports paymentExporter, receipts receiptIssuer) *AdminHandler {
	return &AdminHandler{payments: payments, orders: orders, exports: exports, receipts: receipts}
}

func attemptFilterFromQuery(c *gin.Context) repository.AttemptFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return repository.AttemptFilter{
		Email:    c.Query("email"),
		State:    models.AttemptState(c.Query("state")),
		Page:     page,
		PageSize: size,
	}
}

// ListPayments godoc
// @Summary Payment attempt history
// @Tags Admin
// @Produce json
// @Param email query string false "Filter by email"
// @Param state query string false "Filter by state"
// @Success 200 {object} response.Envelope
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c *gin.Context) {
	filter := attemptFilterFromQuery(c)
	attempts, total, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, attempts, pagination)
}

// ExportPayments godoc
// @Summary Export payment history
// @Tags Admin
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /admin/payments/export [get]
func (h *AdminHandler) ExportPayments(c *gin.Context) {
	result, err := h.exports.ExportPayments(c.Request.Context(), c.DefaultQuery("format", "csv"), attemptFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// ListOrders godoc
// @Summary Subscription box orders
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/orders [get]
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, pagination, err := h.orders.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// ReceiptLink godoc
// @Summary Signed receipt download link
// @Tags Admin
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} response.Envelope
// @Router /admin/receipts/{reference} [get]
func (h *AdminHandler) ReceiptLink(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "reference is required"))
		return
	}
	token, expiresAt, err := h.receipts.SignedDownload(reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SignedDownloadResponse{
		Token:     token,
		URL:       "/downloads?token=" + token,
		ExpiresAt: expiresAt,
	}, nil)
}
