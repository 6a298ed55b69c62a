package upstream

import (
	"crypto/rand"
	"encoding/binary"
)

// IDSource hands out transaction IDs for upstream queries.
type IDSource interface {
	NextID() uint16
}

// IDSourceFunc adapts a plain function to IDSource.
type IDSourceFunc func() uint16

func (f IDSourceFunc) NextID() uint16 { return f() }

// RandomIDs draws IDs from crypto/rand so off-path spoofers cannot predict
// them.
type RandomIDs struct{}

func (RandomIDs) NextID() uint16 {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	return binary.BigEndian.Uint16(b[:])
}
