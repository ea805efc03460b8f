package model

// Theme is the user's persisted display theme. The backend stores it as the
// literal string "light" or "dark" under /users/{uid}/current_theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var AllTheme = []Theme{
	ThemeLight,
	ThemeDark,
}

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark:
		return true
	}
	return false
}

func (t Theme) String() string {
	return string(t)
}

// Toggle returns the other theme. This replaces the original client's
// inverted-boolean switch state: the stored value is always the explicit
// enum, and flipping it twice is guaranteed to return the starting value.
func (t Theme) Toggle() Theme {
	if NormalizeTheme(t) == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// NormalizeTheme maps absent or unrecognized stored values to the documented
// default. A brand-new user node has no current_theme at all; only the
// literal "dark" ever activates the dark palette.
func NormalizeTheme(t Theme) Theme {
	if t == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
