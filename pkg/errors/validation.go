package errors

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	maxIDLength   = 128
	maxPathLength = 4096
)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateRecordID checks an objective id before it is used as a root
// selector or a map key.
func ValidateRecordID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return New(ErrCodeInvalidInput, "okr id cannot be empty")
	case len(id) > maxIDLength:
		return New(ErrCodeInvalidInput, "okr id too long (max %d characters)", maxIDLength)
	case hasControl(id):
		return New(ErrCodeInvalidInput, "okr id contains control characters")
	}
	return nil
}

// ValidatePath checks a local file path handed to a record source. Relative
// paths, including ones that climb with "..", are allowed.
func ValidatePath(path string) error {
	switch {
	case strings.TrimSpace(path) == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path contains control characters")
	}
	return nil
}

// ValidateURL checks the base URL of the tracker API: http or https with a
// host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	return nil
}
