// Package script holds the line-oriented model of game script files and the
// key-derivation rule used to identify mergeable lines.
package script

import "strings"

// File is one script file extracted from a container. Path is the file's
// relative location inside its container, using forward slashes. Identity of
// a path is case-insensitive: two files whose paths differ only by case
// refer to the same canonical file.
type File struct {
	Path    string
	Content string
	Source  string // name of the pak/archive the file came from
}

// PathKey returns the case-insensitive identity of a relative path.
func PathKey(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// Basename returns the final path element of a container path, tolerating
// both slash styles.
func Basename(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Lines splits content on line breaks, normalizing CRLF first so the merge
// pass sees the same line set regardless of the file's original endings.
func Lines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// Join restores line breaks on a merged line sequence.
func Join(lines []string) string {
	return strings.Join(lines, "\n")
}
