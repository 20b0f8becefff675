package invoice

import (
	"regexp"
	"strings"
)

// emailPattern is the strict address syntax accepted for delivery.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-']+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether addr matches the accepted address syntax.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// ParseEmailList splits a `;`/`,`-delimited address list, keeping only
// syntactically valid addresses and dropping case-insensitive duplicates
// while preserving first-seen order.
func ParseEmailList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})
	return FilterEmails(parts)
}

// FilterEmails trims, validates and dedupes a list of addresses.
func FilterEmails(addrs []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" || !ValidEmail(a) {
			continue
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
