package handler

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
	"github.com/noah-isme/wisdomwork-api/pkg/storage"
)

type mediaResolver interface {
	Resolve(token string) (*storage.MediaObject, error)
}

// MediaHandler serves blobs kept by the local blob store behind signed tokens.
type MediaHandler struct {
	resolver mediaResolver
}

// NewMediaHandler constructs a media handler.
func NewMediaHandler(resolver mediaResolver) *MediaHandler {
	return &MediaHandler{resolver: resolver}
}

// Serve godoc
// @Summary Serve an uploaded file
// @Tags Media
// @Param token path string true "Signed media token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	obj, err := h.resolver.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}
	defer obj.File.Close()

	info, err := obj.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}
	// ServeContent keeps a Content-Type that is already set.
	c.Header("Content-Type", obj.ContentType)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Disposition", "inline")
	c.Header("Cache-Control", "private, max-age=3600")
	http.ServeContent(c.Writer, c.Request, path.Base(obj.Key), info.ModTime(), obj.File)
}
