package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// Bit layout of header bytes 2 and 3 (RFC 1035 4.1.1).
const (
	maskQR     = 0x80
	maskOpcode = 0x78
	maskAA     = 0x04
	maskTC     = 0x02
	maskRD     = 0x01

	maskRA    = 0x80
	maskZ     = 0x70
	maskRCode = 0x0F

	shiftOpcode = 3
	shiftZ      = 4
)

// DecodeHeader unpacks the first 12 bytes of data.
func DecodeHeader(data []byte) (domain.Header, error) {
	if len(data) < domain.HeaderSize {
		return domain.Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", domain.ErrParse, domain.HeaderSize, len(data))
	}
	flags1, flags2 := data[2], data[3]
	return domain.Header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		QR:      flags1&maskQR != 0,
		Opcode:  domain.Opcode((flags1 & maskOpcode) >> shiftOpcode),
		AA:      flags1&maskAA != 0,
		TC:      flags1&maskTC != 0,
		RD:      flags1&maskRD != 0,
		RA:      flags2&maskRA != 0,
		Z:       (flags2 & maskZ) >> shiftZ,
		RCode:   domain.RCode(flags2 & maskRCode),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

// EncodeHeader packs h into its 12-byte wire form. Opcode, Z and RCode are
// masked to their field widths; out-of-range values are silently truncated
// rather than rejected.
func EncodeHeader(h domain.Header) [domain.HeaderSize]byte {
	var b [domain.HeaderSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.ID)

	var flags1 byte
	if h.QR {
		flags1 |= maskQR
	}
	flags1 |= (byte(h.Opcode) << shiftOpcode) & maskOpcode
	if h.AA {
		flags1 |= maskAA
	}
	if h.TC {
		flags1 |= maskTC
	}
	if h.RD {
		flags1 |= maskRD
	}

	var flags2 byte
	if h.RA {
		flags2 |= maskRA
	}
	flags2 |= (h.Z << shiftZ) & maskZ
	flags2 |= byte(h.RCode) & maskRCode

	b[2], b[3] = flags1, flags2
	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)
	return b
}
