package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStorePutAndResolve(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := NewLocalBlobStore(files, NewSignedURLSigner("secret", time.Hour), "http://localhost:8080/")

	url, err := store.Put(context.Background(), "course_images/cover.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/"))

	token := strings.TrimPrefix(url, "http://localhost:8080/media/")
	obj, err := store.Resolve(token)
	require.NoError(t, err)
	defer obj.File.Close() //nolint:errcheck

	body, err := io.ReadAll(obj.File)
	require.NoError(t, err)
	assert.Equal(t, "course_images/cover.png", obj.Key)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "png-bytes", string(body))
}

func TestLocalBlobStoreOverwritesSameKey(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := NewLocalBlobStore(files, NewSignedURLSigner("secret", time.Hour), "http://localhost")

	_, err = store.Put(context.Background(), "project_images/a.png", []byte("first"), "image/png")
	require.NoError(t, err)
	url, err := store.Put(context.Background(), "project_images/a.png", []byte("second"), "image/png")
	require.NoError(t, err)

	obj, err := store.Resolve(strings.TrimPrefix(url, "http://localhost/media/"))
	require.NoError(t, err)
	defer obj.File.Close() //nolint:errcheck
	body, _ := io.ReadAll(obj.File)
	assert.Equal(t, "second", string(body))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.Error(t, files.Save("../outside.txt", []byte("x")))
	require.Error(t, files.Save("", []byte("x")))
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, files.Delete("course_images/missing.png"))
	_, err = files.Open("course_images/missing.png")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalBlobStoreRecordsContentType(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := NewSignedURLSigner("secret", time.Hour)
	store := NewLocalBlobStore(files, signer, "http://localhost")

	_, err = store.Put(context.Background(), "course_images/page.html", []byte("<html>"), "image/png")
	require.NoError(t, err)
	token, _, err := signer.Generate("course_images/page.html")
	require.NoError(t, err)

	obj, err := store.Resolve(token)
	require.NoError(t, err)
	defer obj.File.Close() //nolint:errcheck
	assert.Equal(t, "image/png", obj.ContentType)

	sidecar, _, err := signer.Generate(contentTypePrefix + "course_images/page.html")
	require.NoError(t, err)
	_, err = store.Resolve(sidecar)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Delete(context.Background(), "course_images/page.html"))
	_, err = files.Open(contentTypePrefix + "course_images/page.html")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
