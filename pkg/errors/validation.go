package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCountryName validates a country display name before it is turned
// into a boundary resource key.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., /, \)
//   - Maximum length of 128 characters
func ValidateCountryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "country name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "country name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "country name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "country name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a dataset path relative to the data root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// metricKeyRegex matches metric column names such as "gdp" or "solar_share_elec".
var metricKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateMetricKey validates the syntax of a metric key.
// Whether the key is one of the loaded metrics is checked by the caller.
func ValidateMetricKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidMetric, "metric cannot be empty")
	}
	if !metricKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidMetric, "invalid metric key: %q", key)
	}
	return nil
}

// ValidateYear checks that year lies within [start, end].
func ValidateYear(year, start, end int) error {
	if year < start || year > end {
		return New(ErrCodeInvalidYear, "year %d outside %d-%d", year, start, end)
	}
	return nil
}
