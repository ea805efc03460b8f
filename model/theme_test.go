package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeToggleIsInvolutive(t *testing.T) {
	for _, theme := range AllTheme {
		assert.Equal(t, theme, theme.Toggle().Toggle())
		assert.NotEqual(t, theme, theme.Toggle())
	}
}

func TestNormalizeTheme(t *testing.T) {
	// A brand-new user node has no current_theme at all. Only the literal
	// "dark" ever maps to dark.
	assert.Equal(t, ThemeLight, NormalizeTheme(Theme("")))
	assert.Equal(t, ThemeLight, NormalizeTheme(Theme("LIGHT")))
	assert.Equal(t, ThemeLight, NormalizeTheme(Theme("midnight")))
	assert.Equal(t, ThemeDark, NormalizeTheme(ThemeDark))
	assert.Equal(t, ThemeLight, NormalizeTheme(ThemeLight))
}

func TestFromTreeDecodesPostRecord(t *testing.T) {
	raw := map[string]interface{}{
		"preview_image": "image_2",
		"title":         "Soup",
		"description":   "A soup",
		"recipe":        "Boil water.",
		"author":        "Jane Doe",
		"author_uid":    "uid_1",
		"created_on":    "Mon Jun 05 2023 10:00:00",
		"likes":         float64(5),
	}

	var post RecipePost
	assert.NoError(t, FromTree(raw, &post))
	assert.Equal(t, PreviewImage2, post.PreviewImage)
	assert.Equal(t, "Soup", post.Title)
	assert.Equal(t, 5, post.Likes)
}
