package domain

import "fmt"

// RRType represents a DNS resource record type. RDATA is carried opaquely,
// so the type only matters for logging and cache keys.
type RRType uint16

const (
	RRTypeA     RRType = 1
	RRTypeNS    RRType = 2
	RRTypeCNAME RRType = 5
	RRTypeSOA   RRType = 6
	RRTypePTR   RRType = 12
	RRTypeMX    RRType = 15
	RRTypeTXT   RRType = 16
	RRTypeAAAA  RRType = 28
	RRTypeSRV   RRType = 33
	RRTypeOPT   RRType = 41
	RRTypeANY   RRType = 255
)

var rrTypeNames = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypePTR:   "PTR",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
	RRTypeSRV:   "SRV",
	RRTypeOPT:   "OPT",
	RRTypeANY:   "ANY",
}

// String returns the mnemonic, or the RFC 3597 generic form "TYPE<n>".
func (t RRType) String() string {
	if s, ok := rrTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}
