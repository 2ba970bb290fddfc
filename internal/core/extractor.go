package core

import (
	"regexp"
)

// Address grammar, following the RFC 5322 inspired pattern published at
// emailregex.com. Matching is case-sensitive.
const (
	localChars  = "[a-z0-9!#$%&'*+/=?^_`{|}~-]"
	dotAtom     = `(?:` + localChars + `+(?:\.` + localChars + `+)*)`
	quotedLocal = `"(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21\x23-\x5b\x5d-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*"`
	label       = `[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`
	hostname    = `(?:` + label + `\.)+` + label
	octet       = `(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`
	addrLiteral = `\[(?:` + octet + `\.){3}(?:` + octet + `|[a-z0-9-]*[a-z0-9]:(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21-\x5a\x53-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])+)\]`
)

// emailPattern is compiled once and only read afterwards, so it is safe to
// share between concurrent dispatches.
var emailPattern = regexp.MustCompile(`(?:` + dotAtom + `|` + quotedLocal + `)@(?:` + hostname + `|` + addrLiteral + `)`)

// ExtractEmail returns the leftmost valid email address found in text.
// The address is returned exactly as it appears in text.
func ExtractEmail(text string) (string, error) {
	loc := emailPattern.FindStringIndex(text)
	if loc == nil {
		return "", ErrNoEmailFound
	}
	return text[loc[0]:loc[1]], nil
}
