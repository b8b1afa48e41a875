// Package security sets the HTTP security headers of every response: a
// Content Security Policy with a per-request script nonce, HSTS on TLS
// connections and the usual framing, sniffing and referrer headers.
//
// Pages read the nonce with NonceFromContext and put it on their inline
// scripts, so the policy never needs 'unsafe-inline'.
package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/conneroisu/knygynas/internal/config"
	"github.com/conneroisu/knygynas/internal/logging"
)

// contextKey represents a context key type for type safety
type contextKey string

// nonceContextKey is used to store CSP nonce values in request context
const nonceContextKey contextKey = "csp_nonce"

// SecurityConfig holds the header policy applied by Middleware.
type SecurityConfig struct {
	// CSP configures Content Security Policy headers and nonce generation
	CSP *CSPConfig
	// HSTS enables HTTP Strict Transport Security with configurable options
	HSTS *HSTSConfig
	// XFrameOptions sets X-Frame-Options header (DENY, SAMEORIGIN)
	XFrameOptions string
	// XContentTypeNoSniff enables X-Content-Type-Options: nosniff header
	XContentTypeNoSniff bool
	// ReferrerPolicy sets Referrer-Policy header for referrer information control
	ReferrerPolicy string
	// PermissionsPolicy lists browser features and the origins allowed to use them
	PermissionsPolicy map[string][]string
	// EnableNonce controls CSP nonce generation for script tags
	EnableNonce bool
	// Logger records nonce generation failures
	Logger logging.Logger
}

// CSPConfig holds Content Security Policy configuration
type CSPConfig struct {
	DefaultSrc              []string
	ScriptSrc               []string
	StyleSrc                []string
	ImgSrc                  []string
	ConnectSrc              []string
	ObjectSrc               []string
	FrameAncestors          []string
	BaseURI                 []string
	FormAction              []string
	UpgradeInsecureRequests bool
}

// HSTSConfig holds HTTP Strict Transport Security configuration
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
	Preload           bool
}

// DefaultSecurityConfig returns a secure default configuration
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc:     []string{"'self'"},
			ScriptSrc:      []string{"'self'"},
			StyleSrc:       []string{"'self'"},
			ImgSrc:         []string{"'self'", "data:"},
			ConnectSrc:     []string{"'self'", "ws:", "wss:"},
			ObjectSrc:      []string{"'none'"},
			FrameAncestors: []string{"'none'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
		},
		HSTS: &HSTSConfig{
			MaxAge:            31536000, // 1 year
			IncludeSubDomains: true,
		},
		XFrameOptions:       "DENY",
		XContentTypeNoSniff: true,
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy: map[string][]string{
			"camera":      {},
			"geolocation": {},
			"microphone":  {},
			"payment":     {},
		},
		EnableNonce: true,
	}
}

// DevelopmentSecurityConfig returns a more permissive config for development
func DevelopmentSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()

	// Allow iframe embedding for development tools
	config.XFrameOptions = "SAMEORIGIN"
	config.CSP.FrameAncestors = []string{"'self'"}

	// Development runs over plain HTTP
	config.HSTS = nil

	return config
}

// ProductionSecurityConfig returns a strict config for production
func ProductionSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.CSP.UpgradeInsecureRequests = true
	config.CSP.ConnectSrc = []string{"'self'"}
	return config
}

// SecurityConfigFromAppConfig picks the policy for the configured
// environment. A configured domain is allowed as a source and form target
// because links, stylesheets and form actions are prefixed with it.
func SecurityConfigFromAppConfig(cfg *config.Config) *SecurityConfig {
	var sc *SecurityConfig
	switch cfg.Server.Environment {
	case "production":
		sc = ProductionSecurityConfig()
	case "development":
		sc = DevelopmentSecurityConfig()
	default:
		sc = DefaultSecurityConfig()
	}

	if origin := domainOrigin(cfg.Server.Domain); origin != "" {
		sc.CSP.DefaultSrc = append(sc.CSP.DefaultSrc, origin)
		sc.CSP.StyleSrc = append(sc.CSP.StyleSrc, origin)
		sc.CSP.FormAction = append(sc.CSP.FormAction, origin)
	}
	return sc
}

func domainOrigin(domain string) string {
	if domain == "" {
		return ""
	}
	u, err := url.Parse(domain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// generateNonce generates a cryptographically secure random nonce
func generateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}

// NonceFromContext returns the request's CSP nonce, or "" when none was set.
func NonceFromContext(ctx context.Context) string {
	if nonce, ok := ctx.Value(nonceContextKey).(string); ok {
		return nonce
	}
	return ""
}

// Middleware applies secConfig to every response.
func Middleware(secConfig *SecurityConfig) func(http.Handler) http.Handler {
	if secConfig == nil {
		secConfig = DefaultSecurityConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var nonce string
			if secConfig.EnableNonce {
				var err error
				nonce, err = generateNonce()
				if err != nil {
					if secConfig.Logger != nil {
						secConfig.Logger.Error(r.Context(), err, "Failed to generate CSP nonce")
					}
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				r = r.WithContext(context.WithValue(r.Context(), nonceContextKey, nonce))
			}

			applySecurityHeaders(w, r, secConfig, nonce)
			next.ServeHTTP(w, r)
		})
	}
}

// applySecurityHeaders applies all configured security headers
func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig, nonce string) {
	h := w.Header()

	if config.CSP != nil {
		h.Set("Content-Security-Policy", buildCSPHeader(config.CSP, nonce))
	}

	// Browsers ignore HSTS over plain HTTP
	if config.HSTS != nil && r.TLS != nil {
		h.Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}

	if config.XFrameOptions != "" {
		h.Set("X-Frame-Options", config.XFrameOptions)
	}

	if config.XContentTypeNoSniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}

	if config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", config.ReferrerPolicy)
	}

	if header := buildPermissionsPolicyHeader(config.PermissionsPolicy); header != "" {
		h.Set("Permissions-Policy", header)
	}
}

// buildCSPHeader constructs the Content-Security-Policy header value
func buildCSPHeader(csp *CSPConfig, nonce string) string {
	var directives []string

	addDirective := func(name string, values []string) {
		if name == "script-src" && nonce != "" {
			values = append(append([]string{}, values...), fmt.Sprintf("'nonce-%s'", nonce))
		}
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", csp.ScriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("connect-src", csp.ConnectSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

// buildHSTSHeader constructs the Strict-Transport-Security header value
func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)

	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}

	if hsts.Preload {
		header += "; preload"
	}

	return header
}

// buildPermissionsPolicyHeader constructs the Permissions-Policy header
// value with features in alphabetical order.
func buildPermissionsPolicyHeader(pp map[string][]string) string {
	features := make([]string, 0, len(pp))
	for name := range pp {
		features = append(features, name)
	}
	sort.Strings(features)

	policies := make([]string, 0, len(features))
	for _, name := range features {
		policies = append(policies, fmt.Sprintf("%s=(%s)", name, strings.Join(pp[name], " ")))
	}
	return strings.Join(policies, ", ")
}
