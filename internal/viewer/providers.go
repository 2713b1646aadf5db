package viewer

import (
	"net/url"
	"regexp"
	"strings"
)

// Provider URL markers. The provider is determined by substring match on the
// document URL; anything unrecognized passes through verbatim.
const (
	formProviderMarker   = "docs.google.com/forms"
	slidesProviderMarker = "docs.google.com/presentation"

	// FormEntryMarker is the prefilled-field marker a form URL must carry
	// so the identity can be appended.
	FormEntryMarker = "entry."
)

var slidesDocPath = regexp.MustCompile(`/d/e/[^/]+`)

// TemplateURL rewrites a catalog entry's document URL for embedding.
//
// Form provider URLs must end with the trailing assignment marker "="; the
// URL-encoded identity and the embedding flag are appended. Slide-deck URLs
// get their publish segment rewritten to an embed segment. Other URLs are
// used as is.
func TemplateURL(baseURL, userID string) (string, error) {
	switch {
	case strings.Contains(baseURL, formProviderMarker):
		if !strings.HasSuffix(baseURL, "=") {
			return "", &Error{Message: `form link must end with "=" so the identity can be appended`}
		}
		return baseURL + url.QueryEscape(userID) + "&embedded=true", nil

	case strings.Contains(baseURL, slidesProviderMarker):
		target := baseURL
		if strings.Contains(target, "/pub?") {
			target = strings.Replace(target, "/pub?", "/embed?", 1)
		}
		if !strings.Contains(target, "/embed?") {
			target = slidesDocPath.ReplaceAllString(target, "$0/embed")
		}
		return target, nil

	default:
		return baseURL, nil
	}
}

// ValidateFormURL checks the save-time invariant for form-provider links:
// the URL must contain a prefilled-field marker and end with the trailing
// assignment marker.
func ValidateFormURL(baseURL string) bool {
	return strings.Contains(baseURL, FormEntryMarker) && strings.HasSuffix(baseURL, "=")
}
