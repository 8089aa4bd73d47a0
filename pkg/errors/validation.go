package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxPackageIDLength is the longest package id the NuGet gallery accepts.
const maxPackageIDLength = 100

// nugetPackageIDRegex matches valid NuGet package ids.
var nugetPackageIDRegex = regexp.MustCompile(`^\w+([_.-]\w+)*$`)

// RequireNonBlank reports a contract violation when value is empty or
// whitespace only. name identifies the argument in the message.
func RequireNonBlank(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return New(ErrCodeInvalidInput, "%s cannot be blank", name)
	}
	return nil
}

// ValidatePackageID validates a NuGet package id for safety and correctness.
//
// The rules mirror the registry's own: word characters separated by single
// dots, dashes or underscores, at most 100 characters, no control
// characters. Ids passing this check are safe to embed in registry URLs.
func ValidatePackageID(id string) error {
	if err := RequireNonBlank("package id", id); err != nil {
		return err
	}

	if len(id) > maxPackageIDLength {
		return New(ErrCodeInvalidPackage, "package id too long (max %d characters)", maxPackageIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package id contains invalid control characters")
		}
	}

	if !nugetPackageIDRegex.MatchString(id) {
		return New(ErrCodeInvalidPackage, "invalid NuGet package id: %q", id)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}
