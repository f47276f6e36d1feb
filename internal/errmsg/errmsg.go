// Package errmsg turns raw backend errors into messages fit for the UI.
//
// Classification is table driven: the coerced error text is matched against
// Mappings in order and the first hit wins, so more specific patterns must be
// listed before generic ones.
package errmsg

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// ShortMaxLength caps unclassified errors in FormatShort.
const ShortMaxLength = 100

// Mapping pairs an error pattern with the text shown to the user.
type Mapping struct {
	Pattern *regexp.Regexp
	Message string
	// Action is an optional remediation hint, only used by Format.
	Action string
}

// Mappings is the classification table, in priority order.
var Mappings = []Mapping{
	// File system
	{
		Pattern: regexp.MustCompile(`(?i)permission denied`),
		Message: "Permission denied",
		Action:  "Try running the app with appropriate permissions or check file ownership.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)no such file|file not found|cannot find`),
		Message: "File not found",
		Action:  "The file may have been moved or deleted.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)is a directory`),
		Message: "Expected a file but found a directory",
	},
	{
		Pattern: regexp.MustCompile(`(?i)directory not empty`),
		Message: "Cannot delete non-empty directory",
	},
	{
		Pattern: regexp.MustCompile(`(?i)read-only|readonly`),
		Message: "File is read-only",
		Action:  "Check file permissions or remove the read-only flag.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)disk.*full|no space left`),
		Message: "Disk is full",
		Action:  "Free up disk space and try again.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)file.*in use|file.*locked|being used`),
		Message: "File is in use by another process",
		Action:  "Close other applications that may be using this file.",
	},

	// Parsing
	{
		Pattern: regexp.MustCompile(`(?i)unexpected token|unexpected end of input|json.parse`),
		Message: "Invalid JSON syntax",
		Action:  "Check the file for syntax errors like missing commas or brackets.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)expected.*at line|parse error at line`),
		Message: "Syntax error in file",
	},
	{
		Pattern: regexp.MustCompile(`(?i)invalid.*format|malformed`),
		Message: "Invalid file format",
		Action:  "Ensure the file is in the correct format.",
	},

	// Network
	{
		Pattern: regexp.MustCompile(`(?i)network|connection|timeout|ECONNREFUSED`),
		Message: "Network connection error",
		Action:  "Check your internet connection and try again.",
	},

	// Paths
	{
		Pattern: regexp.MustCompile(`(?i)path.*too long`),
		Message: "File path is too long",
		Action:  "Try moving the file to a shorter path.",
	},
	{
		Pattern: regexp.MustCompile(`(?i)invalid.*path|illegal.*path`),
		Message: "Invalid file path",
		Action:  "Check for special characters in the file path.",
	},
}

// Coerce returns the text used for classification: the message of an error,
// the String form of a fmt.Stringer, "null" for nil, and the default
// formatting of anything else.
func Coerce(v any) string {
	switch e := v.(type) {
	case nil:
		return "null"
	case error:
		return e.Error()
	case fmt.Stringer:
		return e.String()
	case string:
		return e
	default:
		return fmt.Sprint(v)
	}
}

// Classify returns the first mapping whose pattern matches v.
func Classify(v any) (Mapping, bool) {
	return classify(Coerce(v))
}

func classify(s string) (Mapping, bool) {
	for _, m := range Mappings {
		if m.Pattern.MatchString(s) {
			return m, true
		}
	}
	return Mapping{}, false
}

// Format returns a user-friendly message for v, including the remediation
// hint when one is known. An empty context adds no prefix.
//
//	Format(err, "Failed to save") // "Failed to save: Permission denied. Try running ..."
func Format(v any, context string) string {
	s := Coerce(v)

	if m, ok := classify(s); ok {
		base := withContext(context, m.Message)
		if m.Action != "" {
			return base + ". " + m.Action
		}
		return base
	}

	return withContext(context, s)
}

// FormatShort is Format without remediation hints, for toasts and other
// compact surfaces. Unclassified errors longer than ShortMaxLength runes are
// cut and suffixed with "...".
func FormatShort(v any, context string) string {
	s := Coerce(v)

	if m, ok := classify(s); ok {
		return withContext(context, m.Message)
	}

	if utf8.RuneCountInString(s) > ShortMaxLength {
		s = string([]rune(s)[:ShortMaxLength]) + "..."
	}
	return withContext(context, s)
}

func withContext(context, msg string) string {
	if context == "" {
		return msg
	}
	return context + ": " + msg
}
