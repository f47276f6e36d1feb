package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigFormat is the syntax of a tool's config file.
type ConfigFormat string

const (
	FormatJSON     ConfigFormat = "json"
	FormatYAML     ConfigFormat = "yaml"
	FormatTOML     ConfigFormat = "toml"
	FormatINI      ConfigFormat = "ini"
	FormatMarkdown ConfigFormat = "md"
)

// ErrUnsupportedFormat is returned for format names or file extensions
// that are not a known ConfigFormat.
var ErrUnsupportedFormat = errors.New("unsupported config format")

var extensionFormats = map[string]ConfigFormat{
	".json":     FormatJSON,
	".jsonc":    FormatJSON,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
	".toml":     FormatTOML,
	".ini":      FormatINI,
	".cfg":      FormatINI,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// Formats lists every supported format.
func Formats() []ConfigFormat {
	return []ConfigFormat{FormatJSON, FormatYAML, FormatTOML, FormatINI, FormatMarkdown}
}

// Valid reports whether f is a supported format.
func (f ConfigFormat) Valid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatINI, FormatMarkdown:
		return true
	}
	return false
}

// ParseFormat accepts a format name ("json", "yaml", ...) or the common
// alias "yml" / "markdown".
func ParseFormat(s string) (ConfigFormat, error) {
	switch f := ConfigFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "yml":
		return FormatYAML, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		if f.Valid() {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat guesses the format of path from its extension.
func DetectFormat(path string) (ConfigFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}
