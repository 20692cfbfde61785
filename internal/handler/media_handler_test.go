package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdomwork-api/internal/service"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/storage"
)

type fakeMediaResolver struct {
	path        string
	key         string
	contentType string
	err         error
}

func (f *fakeMediaResolver) Resolve(string) (*storage.MediaObject, error) {
	if f.err != nil {
		return nil, f.err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return &storage.MediaObject{File: file, Key: f.key, ContentType: f.contentType}, nil
}

func serveMedia(t *testing.T, resolver mediaResolver) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewMediaHandler(resolver)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/media/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Serve(c)
	return rec
}

func TestMediaHandlerServesFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))

	rec := serveMedia(t, &fakeMediaResolver{path: path, key: "course_images/cover.png", contentType: "image/png"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMediaHandlerUsesStoredTypeOverExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "evil.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><script>alert(1)</script></html>"), 0o600))

	rec := serveMedia(t, &fakeMediaResolver{path: path, key: "course_images/evil.html", contentType: "image/png"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMediaHandlerInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := serveMedia(t, &fakeMediaResolver{err: errors.New("signature mismatch")})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaHandlerServesUploadedBlobWithCheckedType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	blobs := storage.NewLocalBlobStore(files, storage.NewSignedURLSigner("secret", time.Hour), "http://localhost")
	uploads := service.NewUploadService(blobs, nil, nil, nil, service.UploadConfig{
		MaxBytes:     1024,
		AllowedMIMEs: []string{"image/png"},
	})

	_, err = uploads.UploadBinary(context.Background(), "course_images/", "evil.html", []byte("<html><script>alert(1)</script></html>"), "image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpload))

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	res, err := uploads.UploadBinary(context.Background(), "course_images/", "cover.html", png, "text/html")
	require.NoError(t, err)
	assert.Equal(t, "course_images/cover.png", res.Key)

	handler := NewMediaHandler(blobs)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	token := strings.TrimPrefix(res.URL, "http://localhost/media/")
	c.Request = httptest.NewRequest(http.MethodGet, "/media/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	handler.Serve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, png, rec.Body.Bytes())
}
