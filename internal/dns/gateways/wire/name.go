package wire

import (
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

const (
	labelTypeMask = 0xC0 // top two bits of a length byte
	pointerFlag   = 0xC0 // both bits set: compression pointer
	pointerHigh   = 0x3F // offset bits in the first pointer byte

	// maxPointerHops bounds how many compression pointers one name may
	// follow. A legal name of 255 bytes can need at most this many.
	maxPointerHops = (domain.MaxNameLength+1)/2 - 2
)

// decodeName reads the name starting at offset and returns it fully expanded
// together with the offset just past it in the caller's byte stream. When the
// name ends in a compression pointer, decoding continues at the pointer target
// inside the same buffer, but the returned offset only moves past the two
// pointer bytes.
func decodeName(data []byte, offset int) (domain.Name, int, error) {
	name := make(domain.Name, 0, 32)
	cursor := offset
	next := -1
	hops := 0

	for {
		if cursor >= len(data) {
			return nil, 0, fmt.Errorf("%w: name at offset %d runs past end of %d-byte message", domain.ErrParse, cursor, len(data))
		}
		b := data[cursor]

		switch {
		case b == 0:
			name = append(name, 0)
			if next < 0 {
				next = cursor + 1
			}
			return name, next, nil

		case b&labelTypeMask == pointerFlag:
			if cursor+1 >= len(data) {
				return nil, 0, fmt.Errorf("%w: compression pointer at offset %d is missing its second byte", domain.ErrParse, cursor)
			}
			target := int(b&pointerHigh)<<8 | int(data[cursor+1])
			if target >= len(data) {
				return nil, 0, fmt.Errorf("%w: compression pointer at offset %d targets offset %d beyond %d-byte message", domain.ErrParse, cursor, target, len(data))
			}
			hops++
			if hops > maxPointerHops {
				return nil, 0, fmt.Errorf("%w: more than %d compression pointers in name at offset %d", domain.ErrParse, maxPointerHops, offset)
			}
			if next < 0 {
				next = cursor + 2
			}
			cursor = target

		case b&labelTypeMask != 0:
			return nil, 0, fmt.Errorf("%w: reserved label type 0x%02x at offset %d", domain.ErrParse, b, cursor)

		default:
			length := int(b)
			if cursor+1+length > len(data) {
				return nil, 0, fmt.Errorf("%w: label of %d bytes at offset %d runs past end of %d-byte message", domain.ErrParse, length, cursor, len(data))
			}
			if len(name)+1+length+1 > domain.MaxNameLength {
				return nil, 0, fmt.Errorf("%w: name at offset %d exceeds %d bytes", domain.ErrParse, offset, domain.MaxNameLength)
			}
			name = append(name, data[cursor:cursor+1+length]...)
			cursor += 1 + length
		}
	}
}

// appendName writes a name that is already in wire form.
func appendName(buf []byte, n domain.Name) ([]byte, error) {
	if len(n) == 0 {
		return nil, fmt.Errorf("%w: empty name", domain.ErrSerialization)
	}
	return append(buf, n...), nil
}
