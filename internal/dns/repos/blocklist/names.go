package blocklist

import (
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
)

// canonicalName lowercases and trims a name and drops its trailing dots.
func canonicalName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// parentDomains returns name followed by each enclosing domain, most
// specific first. "a.b.example.com" yields "a.b.example.com",
// "b.example.com", "example.com" and "com".
func parentDomains(name string) []string {
	if name == "" {
		return nil
	}
	out := []string{name}
	for {
		i := strings.IndexByte(name, '.')
		if i < 0 || i == len(name)-1 {
			return out
		}
		name = name[i+1:]
		out = append(out, name)
	}
}

// normalizeEntry strips the optional "*." or "." suffix markers used by
// common list formats and canonicalizes the rest. Every entry already
// covers its subdomains, so the markers carry no extra meaning here.
func normalizeEntry(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "*.")
	raw = strings.TrimPrefix(raw, ".")
	return canonicalName(raw)
}

// isValidEntry requires at least two labels of 1..63 bytes, at most 255
// bytes in total and a leading letter or digit. ICANN public suffixes such
// as "co.uk" are refused since they would block whole registries.
func isValidEntry(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	first := []rune(labels[0])[0]
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(name)
	return !(icann && suffix == name)
}
