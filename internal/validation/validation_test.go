package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"http with slash", "http://books.final/", ""},
		{"https with port", "https://books.example:8443", ""},
		{"localhost", "http://localhost:8080", ""},
		{"no scheme", "books.final", "scheme"},
		{"javascript", "javascript:alert(1)", "scheme"},
		{"file", "file:///etc/passwd", "scheme"},
		{"no host", "http://", "hostname"},
		{"command injection", "http://books.final/;rm", "dangerous character"},
		{"quote", "http://books.final/\"", "dangerous character"},
		{"space", "http://books.final/a b", "spaces"},
		{"query", "http://books.final/?x=1", "query"},
		{"fragment", "http://books.final/#top", "fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	for _, host := range []string{"", "localhost", "127.0.0.1", "::1", "books.final"} {
		assert.NoError(t, ValidateHost(host), host)
	}
	for _, host := range []string{"localhost;rm", "$(whoami)", "a b", "host/path", "`id`"} {
		assert.Error(t, ValidateHost(host), host)
	}
}
