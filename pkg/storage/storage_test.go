package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURLEscapesSegments(t *testing.T) {
	got := objectURL("https://cdn.example.com/media/", "course_images/My Cover #1?.png")
	assert.Equal(t, "https://cdn.example.com/media/course_images/My%20Cover%20%231%3F.png", got)

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Empty(t, parsed.RawQuery)
	assert.Empty(t, parsed.Fragment)
	assert.Equal(t, "/media/course_images/My Cover #1?.png", parsed.Path)
}

func TestObjectURLPlainKey(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/bucket/a/b.png", objectURL("http://localhost:9000/bucket", "a/b.png"))
}
