package domain

// Opcode is the 4-bit kind-of-query field of the DNS header.
type Opcode uint8

const (
	OpcodeQuery  Opcode = 0 // standard query
	OpcodeIQuery Opcode = 1 // inverse query (obsolete)
	OpcodeStatus Opcode = 2 // server status request
)

// HeaderSize is the fixed length of a DNS header on the wire.
const HeaderSize = 12

// Header is the fixed 12-byte preamble of every DNS message (RFC 1035 4.1.1).
//
// Opcode is 4 bits wide, Z is 3 bits and RCode is 4 bits on the wire. Values
// wider than that are truncated to their bit width when encoded.
type Header struct {
	ID      uint16
	QR      bool
	Opcode  Opcode
	AA      bool
	TC      bool
	RD      bool
	RA      bool
	Z       uint8
	RCode   RCode
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsStandardQuery reports whether the header carries OPCODE 0.
func (h Header) IsStandardQuery() bool {
	return h.Opcode == OpcodeQuery
}
