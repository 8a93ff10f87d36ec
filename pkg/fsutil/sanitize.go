package fsutil

import "strings"

// invalidFilenameChars are characters rejected by at least one common
// filesystem when used in a path segment.
const invalidFilenameChars = `\/*?:"<>|`

// SanitizeFilename maps an arbitrary display name to a name safe for use as a
// single path segment. Characters invalid on common filesystems are removed
// (not substituted) and spaces are replaced with underscores.
//
// The function is total and idempotent; an input consisting only of invalid
// characters yields an empty string, which callers must handle themselves.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(invalidFilenameChars, r):
			// dropped entirely
		case r == ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
