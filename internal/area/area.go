// Package area maps the free-text area descriptions used by the alert feed
// and by subscribers onto canonical region keys.
package area

import "strings"

// aliases is checked in order; the first substring hit wins. Feed titles and
// CAP area descriptions phrase the same region many ways ("Southern Finland",
// "the southern part of the country", "whole country"), all of which cover
// the service's target region.
var aliases = []struct {
	substr    string
	canonical string
}{
	{"southern finland", "uusimaa"},
	{"the southern part of the country", "uusimaa"},
	{"helsinki", "uusimaa"},
	{"uusimaa", "uusimaa"},
	{"whole country", "uusimaa"},
	{"all of finland", "uusimaa"},
}

// Normalize lowers the description and resolves known aliases to their
// canonical region key. Unknown descriptions come back lowercased unchanged.
func Normalize(desc string) string {
	d := strings.ToLower(strings.TrimSpace(desc))
	for _, a := range aliases {
		if strings.Contains(d, a.substr) {
			return a.canonical
		}
	}
	return d
}

// MatchesTitle reports whether a feed entry title references one of the
// target regions, directly or through a known alias.
func MatchesTitle(title string, targets []string) bool {
	t := strings.ToLower(title)
	for _, target := range targets {
		canonical := Normalize(target)
		if strings.Contains(t, strings.ToLower(target)) {
			return true
		}
		for _, a := range aliases {
			if a.canonical == canonical && strings.Contains(t, a.substr) {
				return true
			}
		}
	}
	return false
}

// Match reports whether two normalized areas refer to overlapping regions.
// Overlap is substring containment in either direction, so "uusimaa" matches
// "western uusimaa" and vice versa.
func Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
