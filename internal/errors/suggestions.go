package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// ServerStartError generates suggestions for server startup failures
func ServerStartError(err error, port int) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := err.Error()

	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Port already in use",
			Description: fmt.Sprintf("Port %d is already being used by another process", port),
			Command:     fmt.Sprintf("lsof -i :%d", port),
		})

		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a different port",
			Description: "Start the server on a different port",
			Command:     fmt.Sprintf("knygynas serve --port %d", port+1000),
		})
	}

	if strings.Contains(errStr, "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Permission denied",
			Description: "You don't have permission to bind to this port",
		})

		if port < 1024 {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       "Use unprivileged port",
				Description: "Ports below 1024 require root privileges",
				Command:     "knygynas serve --port 8080",
			})
		}
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration issues
func ConfigurationError(configError string, configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check configuration file",
			Description: "Verify your .knygynas.yml file exists and has valid syntax",
			Command:     "cat " + configPath,
		},
		{
			Title:       "Validate configuration",
			Description: "Use the config validate command to check for issues",
			Command:     "knygynas config validate",
		},
	}

	if strings.Contains(configError, "yaml") || strings.Contains(configError, "unmarshal") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix YAML syntax",
			Description: "There's a syntax error in your YAML configuration",
			Example:     "Use proper indentation and avoid tabs",
		})
	}

	if strings.Contains(configError, "backend") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Pick a supported storage backend",
			Description: "The storage backend must be file, memory or sqlite",
			Example:     "storage:\n  backend: file",
		})
	}

	return suggestions
}

// StorageOpenError generates suggestions for a data store that cannot be opened
func StorageOpenError(err error, backend, path string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check the data directory",
			Description: fmt.Sprintf("The %s backend could not open %s", backend, path),
			Command:     "ls -la " + path,
		},
	}

	if IsStorageCorruption(err) {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Repair the data file",
			Description: "The file is not a valid JSON array; restore it from a backup or reset it",
			Example:     "echo '[]' > " + path,
		})
	}

	suggestions = append(suggestions, ErrorSuggestion{
		Title:       "Use another location",
		Description: "Keep the data files in a writable directory",
		Command:     "knygynas serve --data-dir ./data",
	})

	return suggestions
}

// FragmentLoadError generates suggestions for missing page fragments
func FragmentLoadError(dir string) []ErrorSuggestion {
	return []ErrorSuggestion{
		{
			Title:       "Check the fragment directory",
			Description: fmt.Sprintf("The header and footer fragments must exist in %s", dir),
			Command:     "ls " + dir,
		},
		{
			Title:       "Point at the fragment directory",
			Description: "Set templates.dir to the directory holding top.html and bottom.html",
			Example:     "templates:\n  dir: web/html",
		},
	}
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	if e.OriginalError == nil {
		return FormatSuggestions(e.Title, e.Suggestions)
	}
	return FormatSuggestions(e.Title+": "+e.OriginalError.Error(), e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
