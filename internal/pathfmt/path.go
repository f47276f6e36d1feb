// Package pathfmt inspects and shortens path strings for display.
//
// Paths are treated as plain strings: no file system access happens here and
// both Unix ("/") and Windows ("\") separators are accepted in the same input.
// Lengths are counted in runes.
package pathfmt

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the length TruncatePath uses when maxLength <= 0.
const DefaultMaxLength = 50

// Ellipsis is the glyph inserted where path characters were removed.
const Ellipsis = "…"

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// segments splits path at every "/" and "\" keeping empty segments.
func segments(path string) []string {
	var parts []string
	start := 0
	for i, r := range path {
		if isSeparator(r) {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}

// separatorFor picks the separator used to rebuild path. A single backslash
// anywhere makes the whole path Windows-style.
func separatorFor(path string) string {
	if strings.Contains(path, `\`) {
		return `\`
	}
	return "/"
}

// FileName returns the last segment of path. ok is false for an empty path
// or when the path ends with a separator.
func FileName(path string) (name string, ok bool) {
	if path == "" {
		return "", false
	}
	parts := segments(path)
	last := parts[len(parts)-1]
	if last == "" {
		return "", false
	}
	return last, true
}

// DirName returns everything before the last segment of path, joined with the
// path's own separator. ok is false when there is no directory component.
func DirName(path string) (dir string, ok bool) {
	if path == "" {
		return "", false
	}
	parts := segments(path)
	if len(parts) < 2 {
		return "", false
	}
	dir = strings.Join(parts[:len(parts)-1], separatorFor(path))
	if dir == "" {
		return "", false
	}
	return dir, true
}

// TruncatePath shortens path to at most maxLength runes for display, keeping
// the first segment and as many trailing segments as fit:
//
//	/home/user/documents/projects/very/deep/file.txt -> /…/projects/very/deep/file.txt
//
// Paths with too few segments, or whose first and last segments alone do not
// fit, are cut in the middle instead.
func TruncatePath(path string, maxLength int) string {
	if path == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	runes := []rune(path)
	if len(runes) <= maxLength {
		return path
	}

	sep := separatorFor(path)
	parts := segments(path)
	if len(parts) <= 2 {
		return middleEllipsis(runes, maxLength)
	}

	first := parts[0]
	last := parts[len(parts)-1]
	sepLen := runeLen(sep)
	fixedLength := runeLen(first) + runeLen(last) + 2*sepLen + 1
	if fixedLength >= maxLength {
		return middleEllipsis(runes, maxLength)
	}

	head := first + sep + Ellipsis
	budget := maxLength - runeLen(head) - sepLen

	trailing := []string{last}
	used := runeLen(last)
	for i := len(parts) - 2; i > 0; i-- {
		cost := runeLen(parts[i]) + sepLen
		if used+cost > budget {
			break
		}
		trailing = append([]string{parts[i]}, trailing...)
		used += cost
	}

	return head + sep + strings.Join(trailing, sep)
}

// middleEllipsis keeps the same number of runes from each end of the path.
func middleEllipsis(runes []rune, maxLength int) string {
	half := (maxLength - 1) / 2
	if half < 0 {
		half = 0
	}
	if half > len(runes) {
		half = len(runes)
	}
	return string(runes[:half]) + Ellipsis + string(runes[len(runes)-half:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
