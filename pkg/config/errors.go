package config

import (
	"fmt"
	"strings"
)

// SourceError describes a problem with one configuration source.
type SourceError struct {
	Source      string   `json:"source"` // defaults, dir, file, cli
	Path        string   `json:"path,omitempty"`
	Key         string   `json:"key,omitempty"`
	ErrorType   string   `json:"errorType"` // missing, parse, io, value
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	Err         error    `json:"-"`
}

// Error implements the error interface
func (se *SourceError) Error() string {
	where := se.Path
	if where == "" {
		where = se.Key
	}
	return fmt.Sprintf("[%s] %s: %s", se.Source, where, se.Message)
}

// Unwrap returns the underlying error.
func (se *SourceError) Unwrap() error {
	return se.Err
}

// DetailedError returns a multi-line description including suggestions.
func (se *SourceError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration error in %s source", se.Source))
	if se.Path != "" {
		parts = append(parts, fmt.Sprintf("  Path: %s", se.Path))
	}
	if se.Key != "" {
		parts = append(parts, fmt.Sprintf("  Key: %s", se.Key))
	}
	parts = append(parts, fmt.Sprintf("  Type: %s", se.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", se.Message))
	if se.Err != nil {
		parts = append(parts, fmt.Sprintf("  Details: %v", se.Err))
	}
	if len(se.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range se.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}
