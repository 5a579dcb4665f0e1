package validation

import (
	"net"
	"strings"
	"testing"
)

func TestNewFeedURLValidator(t *testing.T) {
	v := NewFeedURLValidator()
	if v == nil {
		t.Fatal("NewFeedURLValidator returned nil")
	}

	if v.AllowPrivateHosts {
		t.Error("Expected AllowPrivateHosts to be false by default")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}
}

func TestNewPermissiveFeedURLValidator(t *testing.T) {
	v := NewPermissiveFeedURLValidator()
	if !v.AllowPrivateHosts {
		t.Error("Expected AllowPrivateHosts to be true for permissive mode")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewFeedURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{
			name:        "empty URL",
			input:       "",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:        "whitespace-only URL",
			input:       "   ",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:     "URL without protocol gets HTTPS",
			input:    "github.com/feed",
			expected: "https://github.com/feed",
		},
		{
			name:     "HTTP URL preserved",
			input:    "http://github.com/feed",
			expected: "http://github.com/feed",
		},
		{
			name:     "host and scheme lowercased",
			input:    "HTTPS://Blog.Example.ORG/Feed.xml",
			expected: "https://blog.example.org/Feed.xml",
		},
		{
			name:     "fragment dropped",
			input:    "https://example.org/rss#top",
			expected: "https://example.org/rss",
		},
		{
			name:     "single label host",
			input:    "http://a/feed",
			expected: "http://a/feed",
		},
		{
			name:        "URL too long",
			input:       "https://example.org/" + strings.Repeat("a", 2048),
			shouldError: true,
			errorMsg:    "URL too long",
		},
		{
			name:     "apostrophe in path",
			input:    "https://example.org/o'reilly/feed.xml",
			expected: "https://example.org/o'reilly/feed.xml",
		},
		{
			name:        "invalid characters",
			input:       "https://example.org/<script>",
			shouldError: true,
			errorMsg:    "invalid characters",
		},
		{
			name:        "ftp scheme",
			input:       "ftp://example.org/feed",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "missing host",
			input:       "https:///feed",
			shouldError: true,
			errorMsg:    "valid hostname",
		},
		{
			name:        "localhost blocked",
			input:       "http://localhost:8080/feed",
			shouldError: true,
			errorMsg:    "private host",
		},
		{
			name:        "private IP blocked",
			input:       "http://192.168.1.10/feed",
			shouldError: true,
			errorMsg:    "private host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for input %q, got result %q", tt.input, result)
					return
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
				return
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestValidateAndNormalizePermissive(t *testing.T) {
	v := NewPermissiveFeedURLValidator()

	for _, input := range []string{
		"http://localhost:8080/feed",
		"http://127.0.0.1:53211/rss",
		"http://10.0.0.5/feed",
		"http://[::1]:9000/atom",
	} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("permissive validator rejected %q: %v", input, err)
		}
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := map[string]bool{
		"localhost":         true,
		"LOCALHOST":         true,
		"app.localhost":     true,
		"localhost.example": false,
		"example.org":       false,
	}
	for host, want := range tests {
		if got := isLocalhost(host); got != want {
			t.Errorf("isLocalhost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := map[string]bool{
		"10.1.2.3":        true,
		"172.16.0.1":      true,
		"192.168.0.1":     true,
		"127.0.0.1":       true,
		"169.254.1.1":     true,
		"0.0.0.0":         true,
		"::1":             true,
		"fd00::1":         true,
		"fe80::1":         true,
		"8.8.8.8":         false,
		"172.32.0.1":      false,
		"2001:4860::8888": false,
	}
	for addr, want := range tests {
		ip := net.ParseIP(addr)
		if ip == nil {
			t.Fatalf("bad test address %q", addr)
		}
		if got := isPrivateIP(ip); got != want {
			t.Errorf("isPrivateIP(%q) = %v, want %v", addr, got, want)
		}
	}
}
