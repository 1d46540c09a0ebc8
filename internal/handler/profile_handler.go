package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type profileService interface {
	Profile(ctx context.Context, sessionID string) (*models.ContactProfile, error)
	SaveProfile(ctx context.Context, sessionID string, profile models.ContactProfile) error
	ForgetProfile(ctx context.Context, sessionID string) error
}

// ProfileHandler serves the remembered contact details for a session.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler builds a new handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get godoc
// @Summary Remembered contact details
// @Tags Profile
// @Produce json
// @Param X-Session-ID header string true "Checkout session id"
// @Success 200 {object} response.Envelope
// @Router /enrollments/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Put godoc
// @Summary Remember contact details
// @Tags Profile
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Checkout session id"
// @Param payload body models.ContactProfile true "Contact details"
// @Success 200 {object} response.Envelope
// @Router /enrollments/profile [put]
func (h *ProfileHandler) Put(c *gin.Context) {
	var profile models.ContactProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	if err := h.service.SaveProfile(c.Request.Context(), sessionFromContext(c), profile); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Delete godoc
// @Summary Forget remembered contact details
// @Tags Profile
// @Param X-Session-ID header string true "Checkout session id"
// @Success 204
// @Router /enrollments/profile [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.service.ForgetProfile(c.Request.Context(), sessionFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
