package identity

import "regexp"

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// Valid reports whether id is usable as a login handle: an email address
// or a 10-digit phone number. Exact-match semantics, no trimming and no
// case folding.
func Valid(id string) bool {
	return emailRe.MatchString(id) || phoneRe.MatchString(id)
}
