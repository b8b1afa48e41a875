// Package validation checks operator-supplied values such as the public
// domain, probe URLs and bind hosts before they reach redirects or sockets.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// shellMeta are characters never legitimate in a host or URL we accept.
var shellMeta = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r"}

// ValidateURL validates an absolute http or https URL. Redirect targets and
// links are built by prefixing it, so anything else is rejected.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q (only http/https allowed)", parsed.Scheme)
	}

	if char, ok := containsAny(rawURL, shellMeta); ok {
		return fmt.Errorf("URL contains dangerous character: %s", char)
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("URL must not carry a query or fragment")
	}

	return nil
}

// ValidateHost rejects bind hosts containing shell metacharacters.
func ValidateHost(host string) error {
	if char, ok := containsAny(host, shellMeta); ok {
		return fmt.Errorf("host contains dangerous character: %s", char)
	}
	if strings.ContainsAny(host, " /") {
		return fmt.Errorf("host %q is not a hostname or address", host)
	}
	return nil
}

func containsAny(s string, chars []string) (string, bool) {
	for _, char := range chars {
		if strings.Contains(s, char) {
			return char, true
		}
	}
	return "", false
}
