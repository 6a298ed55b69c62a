package domain

import "fmt"

// Answer is a resource record in the answer section. Data is opaque RDATA;
// Length mirrors len(Data) and must agree with it when the record is encoded.
type Answer struct {
	Name   Name
	Type   RRType
	Class  RRClass
	TTL    uint32
	Length uint16
	Data   []byte
}

// NewAnswer builds an Answer whose Length matches its data.
func NewAnswer(name Name, rrtype RRType, class RRClass, ttl uint32, data []byte) (Answer, error) {
	if len(data) > 0xFFFF {
		return Answer{}, fmt.Errorf("%w: rdata too large: %d bytes (max 65535)", ErrSerialization, len(data))
	}
	return Answer{
		Name:   name,
		Type:   rrtype,
		Class:  class,
		TTL:    ttl,
		Length: uint16(len(data)),
		Data:   data,
	}, nil
}

// Clone returns a deep copy of the answer.
func (a Answer) Clone() Answer {
	c := a
	c.Name = a.Name.Clone()
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return c
}

// CacheKey returns the key of the question this answer satisfies.
func (a Answer) CacheKey() string {
	return GenerateCacheKey(a.Name, a.Type, a.Class)
}

// Validate checks the Length/Data invariant.
func (a Answer) Validate() error {
	if int(a.Length) != len(a.Data) {
		return fmt.Errorf("%w: rdata length field %d does not match %d data bytes", ErrSerialization, a.Length, len(a.Data))
	}
	return nil
}
