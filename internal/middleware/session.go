package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

// ContextSessionKey is the gin context key storing the checkout session id.
const ContextSessionKey = "checkoutSession"

// Session requires the checkout session header on enrollment routes. The
// session id is an opaque token the web client generates once and reuses, so
// the server can tie drafts, attempts and remembered details together.
func Session(headerName string) gin.HandlerFunc {
	if headerName == "" {
		headerName = "X-Session-ID"
	}
	return func(c *gin.Context) {
		sessionID := c.GetHeader(headerName)
		if sessionID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, headerName+" header is required"))
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, sessionID)
		c.Next()
	}
}
