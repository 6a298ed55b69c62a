package blocklist

import (
	"errors"
	"strings"
	"testing"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainList_Basics(t *testing.T) {
	input := `
# comment at top
Example.COM   
example.com.#inline comment

	sub.Example.com.
*.wild.example.com
.root.example.org
not_a_domain
localhost
example.com   # duplicate
`
	got, err := ParsePlainList(strings.NewReader(input), log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"example.com",
		"sub.example.com",
		"wild.example.com",
		"root.example.org",
	}, got)
}

func TestParsePlainList_EmptyAndCommentsOnly(t *testing.T) {
	got, err := ParsePlainList(strings.NewReader("\n# one\n   # two\n\n"), log.NewNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParsePlainList_BOM(t *testing.T) {
	got, err := ParsePlainList(strings.NewReader("\uFEFFbom.example.com\n"), log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"bom.example.com"}, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParsePlainList_ReadError(t *testing.T) {
	_, err := ParsePlainList(failingReader{}, log.NewNoopLogger())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestIsValidEntry(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"1.example.com", true},
		{"com", false},
		{"co.uk", false},
		{"ads.co.uk", true},
		{"", false},
		{"a..com", false},
		{"-bad.com", false},
		{strings.Repeat("a", 64) + ".com", false},
		{strings.Repeat("a.", 128) + "com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidEntry(tt.in), tt.in)
	}
}
