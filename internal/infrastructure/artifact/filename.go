package artifact

import "regexp"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9\-_.]`)

// SanitizeComponent replaces every character outside [A-Za-z0-9-_.] with an
// underscore so invoice metadata can form a deterministic filename.
func SanitizeComponent(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}
