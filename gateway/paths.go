package gateway

import (
	"strings"
)

// The backend schema is fixed for interoperability with the existing
// database: user records live under /users/{uid} and posts under
// /posts/{postKey}, with the like counter as the posts record's "likes"
// field.

const (
	PostsRoot = "/posts"
	UsersRoot = "/users"
)

func UserPath(uid string) string {
	return UsersRoot + "/" + uid
}

func UserThemePath(uid string) string {
	return UserPath(uid) + "/current_theme"
}

func PostPath(key string) string {
	return PostsRoot + "/" + key
}

func PostLikesPath(key string) string {
	return PostPath(key) + "/likes"
}

// NormalizePath maps the accepted spellings of a path ("/posts/", "posts",
// "/posts") to the canonical one: leading slash, no trailing slash, no empty
// segments. The root is "/".
func NormalizePath(path string) string {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// SplitPath returns the canonical segments of a path. The root splits to nil.
func SplitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// IsAncestorPath reports whether ancestor is a (non-strict) prefix of path in
// segment terms. A write anywhere below a subscribed path changes the
// subscribed value, and vice versa, so change notification uses overlap in
// either direction.
func IsAncestorPath(ancestor, path string) bool {
	a := SplitPath(ancestor)
	p := SplitPath(path)
	if len(a) > len(p) {
		return false
	}
	for i := range a {
		if a[i] != p[i] {
			return false
		}
	}
	return true
}

// PathsOverlap reports whether one path is an ancestor of the other.
func PathsOverlap(a, b string) bool {
	return IsAncestorPath(a, b) || IsAncestorPath(b, a)
}
