package provider

import "strings"

// CanonicalPhone normalizes a provider-reported phone number so that
// cross-provider phone matching is reliable: the +82 country prefix collapses
// back to the leading 0 and all separators are dropped.
// "+82 10-1234-5678" and "010 1234 5678" both become "01012345678".
func CanonicalPhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "+82") {
		s = strings.TrimSpace(s[3:])
		s = strings.TrimPrefix(s, "-")
		if !strings.HasPrefix(s, "0") {
			s = "0" + s
		}
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
