package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/service"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type newsletterService interface {
	Subscribe(ctx context.Context, req service.SubscribeRequest) (*models.NewsletterSubscription, error)
}

// NewsletterHandler proxies newsletter signups.
type NewsletterHandler struct {
	service newsletterService
}

// NewNewsletterHandler builds a new handler.
func NewNewsletterHandler(service newsletterService) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

// Subscribe godoc
// @Summary Subscribe to the newsletter
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param payload body service.SubscribeRequest true "Signup payload"
// @Success 200 {object} response.Envelope
// @Router /newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}
	sub, err := h.service.Subscribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
