package urlhandler

import (
	"net/url"
	"strings"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
)

// DefaultScheme is prepended to user input that carries no scheme, e.g. "example.com".
const DefaultScheme = "http"

// NormalizeURL turns user input into the canonical key used for monitored sites.
// The scheme and host are lowercased, default ports and fragments are dropped,
// and a bare "/" path is removed so "http://a.com" and "http://a.com/" collide.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errorwrapper.NewValidationError("url", rawURL, "URL is empty or only whitespace")
	}

	// Add scheme if missing
	if !strings.Contains(trimmedURL, "://") {
		trimmedURL = DefaultScheme + "://" + strings.TrimPrefix(trimmedURL, "//")
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", errorwrapper.NewValidationError("url", rawURL, "could not parse URL: "+err.Error())
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errorwrapper.NewValidationError("url", rawURL, "scheme must be http or https")
	}
	if parsedURL.Hostname() == "" {
		return "", errorwrapper.NewValidationError("url", rawURL, "URL lacks a valid hostname")
	}

	parsedURL.Host = strings.ToLower(parsedURL.Host)
	if (parsedURL.Scheme == "http" && parsedURL.Port() == "80") ||
		(parsedURL.Scheme == "https" && parsedURL.Port() == "443") {
		parsedURL.Host = parsedURL.Hostname()
	}

	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""
	if parsedURL.Path == "/" && parsedURL.RawQuery == "" {
		parsedURL.Path = ""
		parsedURL.RawPath = ""
	}

	return parsedURL.String(), nil
}
