package util

import (
	"net/url"
	"strconv"
	"strings"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func IsURL(value string) bool {
	u, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Host != ""
}

// QueryInt parses a positive integer query value, returning def when the
// value is missing, malformed or not positive.
func QueryInt(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// IsImageContentType reports whether a sniffed MIME type is an accepted upload.
func IsImageContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/webp", "image/gif", "image/heic":
		return true
	default:
		return false
	}
}
