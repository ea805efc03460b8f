package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/posts", NormalizePath("/posts/"))
	assert.Equal(t, "/posts", NormalizePath("posts"))
	assert.Equal(t, "/posts/abc123", NormalizePath("posts/abc123/"))
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/", NormalizePath("///"))
}

func TestPathConstructors(t *testing.T) {
	assert.Equal(t, "/users/uid_1", UserPath("uid_1"))
	assert.Equal(t, "/users/uid_1/current_theme", UserThemePath("uid_1"))
	assert.Equal(t, "/posts/abc123", PostPath("abc123"))
	assert.Equal(t, "/posts/abc123/likes", PostLikesPath("abc123"))
}

func TestPathsOverlap(t *testing.T) {
	assert.True(t, PathsOverlap("/posts", "/posts/abc123/likes"))
	assert.True(t, PathsOverlap("/posts/abc123/likes", "/posts"))
	assert.True(t, PathsOverlap("/posts", "/posts"))
	assert.False(t, PathsOverlap("/posts", "/users/uid_1"))
	assert.False(t, PathsOverlap("/posts/abc", "/posts/abc123"))
}
