// Package blocklist answers whether a queried name falls under a listed
// domain. Lookups pass through a bloom filter before the exact set so the
// common case of an unlisted name never touches the map.
package blocklist

import (
	"fmt"
	"os"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/domain"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

// DefaultFalsePositiveRate sizes the bloom prefilter.
const DefaultFalsePositiveRate = 0.01

// Blocklist is immutable after construction and safe for concurrent use.
type Blocklist struct {
	bloom *bitsbloom.BloomFilter
	names map[string]struct{}
}

// New builds a Blocklist from canonical names. Each name blocks itself and
// every subdomain.
func New(names []string, fpRate float64) *Blocklist {
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = DefaultFalsePositiveRate
	}
	n := uint(len(names))
	if n == 0 {
		n = 1
	}
	b := &Blocklist{
		bloom: bitsbloom.NewWithEstimates(n, fpRate),
		names: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		cn := canonicalName(name)
		if cn == "" {
			continue
		}
		b.bloom.AddString(cn)
		b.names[cn] = struct{}{}
	}
	return b
}

// LoadFile reads a plain list from path and builds a Blocklist from it.
func LoadFile(path string, logger log.Logger) (*Blocklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open blocklist: %w", domain.ErrIO, err)
	}
	defer f.Close()

	names, err := ParsePlainList(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: read blocklist %s: %w", domain.ErrIO, path, err)
	}
	logger.Info(map[string]any{"path": path, "entries": len(names)}, "blocklist loaded")
	return New(names, DefaultFalsePositiveRate), nil
}

// IsBlocked reports whether name or any of its parent domains is listed.
func (b *Blocklist) IsBlocked(name string) bool {
	for _, candidate := range parentDomains(canonicalName(name)) {
		if !b.bloom.TestString(candidate) {
			continue
		}
		if _, ok := b.names[candidate]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of distinct listed domains.
func (b *Blocklist) Len() int {
	return len(b.names)
}

var _ resolver.Blocklist = (*Blocklist)(nil)
