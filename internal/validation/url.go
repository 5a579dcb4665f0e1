package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FeedURLValidator checks source URLs read from the feeds database before they
// are fetched.
type FeedURLValidator struct {
	// AllowPrivateHosts permits localhost, loopback, link-local and private ranges
	AllowPrivateHosts bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewFeedURLValidator creates a validator that refuses private hosts
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowPrivateHosts: false,
		MaxLength:         2048,
	}
}

// NewPermissiveFeedURLValidator creates a validator that allows local development
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowPrivateHosts: true,
		MaxLength:         2048,
	}
}

// ValidateAndNormalize validates a feed URL and returns the normalized version.
// A URL without a scheme is assumed to be https.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	parsedURL.Host = strings.ToLower(parsedURL.Host)

	if !v.AllowPrivateHosts && isPrivateHost(parsedURL.Hostname()) {
		return "", fmt.Errorf("private host %s is not permitted", parsedURL.Hostname())
	}

	parsedURL.Fragment = ""
	return parsedURL.String(), nil
}

func isPrivateHost(hostname string) bool {
	if isLocalhost(hostname) {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && isPrivateIP(ip)
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		strings.HasSuffix(hostname, ".localhost")
}

// isPrivateIP reports loopback, link-local, unspecified and RFC 1918 / 4193 addresses.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
