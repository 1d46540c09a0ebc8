package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/response"
)

type downloadResolver interface {
	Resolve(token string) (*os.File, error)
}

// DownloadHandler serves signed receipt downloads. The token is the only
// credential: anyone holding an unexpired link may fetch the file.
type DownloadHandler struct {
	receipts downloadResolver
}

// NewDownloadHandler builds a new handler.
func NewDownloadHandler(receipts downloadResolver) *DownloadHandler {
	return &DownloadHandler{receipts: receipts}
}

// Download godoc
// @Summary Download a receipt via signed token
// @Tags Downloads
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /downloads [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.receipts.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(file.Name()))
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, filepath.Base(file.Name()), modTime(file), file)
}

func modTime(file *os.File) (t time.Time) {
	if info, err := file.Stat(); err == nil {
		t = info.ModTime()
	}
	return t
}
