package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateServerConfig_Security tests server configuration security validation
func TestValidateServerConfig_Security(t *testing.T) {
	tests := []struct {
		name        string
		config      ServerConfig
		expectError bool
	}{
		{"valid server config", ServerConfig{Port: 8080, Host: "localhost"}, false},
		{"system assigned port", ServerConfig{Port: 0, Host: "127.0.0.1"}, false},
		{"port above range", ServerConfig{Port: 65536, Host: "localhost"}, true},
		{"negative port", ServerConfig{Port: -1, Host: "localhost"}, true},
		{"host command injection", ServerConfig{Port: 80, Host: "localhost; rm -rf /"}, true},
		{"host subshell", ServerConfig{Port: 80, Host: "$(whoami)"}, true},
		{"http domain", ServerConfig{Port: 80, Domain: "http://books.final/"}, false},
		{"https domain", ServerConfig{Port: 443, Domain: "https://books.example"}, false},
		{"domain without scheme", ServerConfig{Port: 80, Domain: "books.final"}, true},
		{"javascript domain", ServerConfig{Port: 80, Domain: "javascript:alert(1)"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateServerConfig(&tt.config)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePath_Security(t *testing.T) {
	tests := []struct {
		path        string
		expectError bool
	}{
		{"web/html", false},
		{"/srv/knygynas/html", false},
		{"", true},
		{"../html", true},
		{"web/../../etc", true},
		{"web/html;ls", true},
		{"web/`id`", true},
		{"web/$(id)", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTemplatesConfig_FragmentNames(t *testing.T) {
	valid := TemplatesConfig{Dir: "web/html", Header: "top.html", Footer: "bottom.html"}
	assert.NoError(t, validateTemplatesConfig(&valid))

	for _, name := range []string{"", "../top.html", "sub/top.html", `sub\top.html`} {
		cfg := valid
		cfg.Header = name
		assert.Error(t, validateTemplatesConfig(&cfg), name)
	}
}
