package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSourceFunc(t *testing.T) {
	next := uint16(10)
	src := IDSourceFunc(func() uint16 {
		next++
		return next
	})
	assert.Equal(t, uint16(11), src.NextID())
	assert.Equal(t, uint16(12), src.NextID())
}

func TestRandomIDs_Vary(t *testing.T) {
	var src RandomIDs
	seen := make(map[uint16]struct{})
	for range 64 {
		seen[src.NextID()] = struct{}{}
	}
	// 64 draws from 65536 values colliding down to a handful is not plausible
	assert.Greater(t, len(seen), 32)
}
