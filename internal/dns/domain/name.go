package domain

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const (
	// MaxLabelLength is the longest label a length byte can describe.
	MaxLabelLength = 63

	// MaxNameLength is the longest name allowed on the wire, including
	// length bytes and the terminating zero.
	MaxNameLength = 255
)

// Name is a domain name held in wire form: a sequence of length-prefixed
// labels followed by a zero byte. Names produced by the decoder are fully
// expanded, so they never refer back into the packet they were read from.
type Name []byte

// RootName is the wire form of ".".
var RootName = Name{0}

// NameFromString converts a presentation-form name such as "www.example.com."
// into wire form. ASCII names keep their case; Unicode names are converted to
// their lowercase ASCII (punycode) form.
func NameFromString(s string) (Name, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return Name{0}, nil
	}
	ascii := s
	if !isASCII(s) {
		var err error
		ascii, err = idna.Lookup.ToASCII(s)
		if err != nil {
			return nil, fmt.Errorf("invalid domain name %q: %w", s, err)
		}
	}
	buf := make([]byte, 0, len(ascii)+2)
	for _, label := range strings.Split(ascii, ".") {
		if len(label) == 0 {
			return nil, fmt.Errorf("empty label in %q", s)
		}
		if len(label) > MaxLabelLength {
			return nil, fmt.Errorf("label too long: %s", label)
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)
	if len(buf) > MaxNameLength {
		return nil, fmt.Errorf("name too long: %d bytes", len(buf))
	}
	return Name(buf), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// MustName is NameFromString for static names. It panics on error.
func MustName(s string) Name {
	n, err := NameFromString(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Labels splits the name into its label bodies. A malformed name yields the
// labels up to the first inconsistency.
func (n Name) Labels() [][]byte {
	var labels [][]byte
	for i := 0; i < len(n); {
		l := int(n[i])
		if l == 0 || i+1+l > len(n) {
			break
		}
		labels = append(labels, n[i+1:i+1+l])
		i += 1 + l
	}
	return labels
}

// String renders the name in presentation form with a trailing dot.
// Bytes outside printable ASCII, dots and backslashes are escaped.
func (n Name) String() string {
	labels := n.Labels()
	if len(labels) == 0 {
		return "."
	}
	var sb strings.Builder
	for _, label := range labels {
		for _, c := range label {
			switch {
			case c == '.' || c == '\\':
				sb.WriteByte('\\')
				sb.WriteByte(c)
			case c < '!' || c > '~':
				fmt.Fprintf(&sb, "\\%03d", c)
			default:
				sb.WriteByte(c)
			}
		}
		sb.WriteByte('.')
	}
	return sb.String()
}

// Equal compares two names byte for byte.
func (n Name) Equal(other Name) bool {
	return bytes.Equal(n, other)
}

// Clone returns a copy that shares no memory with n.
func (n Name) Clone() Name {
	if n == nil {
		return nil
	}
	return append(Name(nil), n...)
}
