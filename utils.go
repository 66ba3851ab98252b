package shareustc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeObjectKey trims surrounding whitespace and any leading slashes.
func NormalizeObjectKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

// IsValidObjectKey validates an already normalized object key.
// It checks that the key:
//   - is not empty and does not end with "/"
//   - does not contain ".." or empty segments
//   - does not contain "\", "?" or "#"
//   - is valid UTF-8 without control characters or whitespace
func IsValidObjectKey(k string) bool {
	if k == "" || k == "." || k[0] == '/' {
		return false
	}

	if strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "..") || strings.Contains(k, "//") {
		return false
	}

	if strings.ContainsAny(k, `\?#`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if strings.Contains(k, "/./") || strings.HasPrefix(k, "./") || strings.HasSuffix(k, "/.") {
		return false
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// HasUploadPrefix reports whether key lives under one of the upload prefixes.
func HasUploadPrefix(key string) bool {
	for _, p := range []UploadPrefix{PrefixResources, PrefixImages} {
		if strings.HasPrefix(key, string(p)+"/") && len(key) > len(p)+1 {
			return true
		}
	}
	return false
}
