package script

import (
	"regexp"
	"strings"
)

// keyPattern matches a call-like line: an identifier followed by a quoted
// first argument, e.g. `SetHealth("boss1", 100)`.
//
// Two key-derivation rules exist in the wild for these files; the other one
// keys on the first two whitespace tokens of a line. They are not
// equivalent: the two-token rule also keys comments and bare numbers, which
// turns unrelated edits into conflicts. This package deliberately uses the
// stricter quoted-first-argument rule, so only call-like lines participate
// in merging and everything else passes through verbatim.
var keyPattern = regexp.MustCompile(`^(\w+)\s*\(\s*"([^"]+)"`)

// ParseKey derives the merge identity of a line. Leading and trailing
// whitespace never affects the key. The second return is false for lines
// that have no key and must be passed through unmerged.
func ParseKey(line string) (string, bool) {
	line = strings.TrimSpace(line)
	m := keyPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1] + "_" + m[2], true
}

// BuildKeyMap maps each key in content to its representative line. Within
// one source the first occurrence of a key wins; later duplicates never
// overwrite it.
func BuildKeyMap(content string) map[string]string {
	keyed := make(map[string]string)
	for _, line := range Lines(content) {
		key, ok := ParseKey(line)
		if !ok {
			continue
		}
		if _, seen := keyed[key]; !seen {
			keyed[key] = line
		}
	}
	return keyed
}
