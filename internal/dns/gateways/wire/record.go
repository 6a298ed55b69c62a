package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

const (
	questionFixedLen = 4  // type + class
	answerFixedLen   = 10 // type + class + ttl + rdlength
)

// decodeQuestion reads one question entry at offset.
func decodeQuestion(data []byte, offset int) (domain.Question, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if offset+questionFixedLen > len(data) {
		return domain.Question{}, 0, fmt.Errorf("%w: not enough bytes for QTYPE/QCLASS at offset %d", domain.ErrParse, offset)
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
	}
	return q, offset + questionFixedLen, nil
}

// decodeAnswer reads one resource record at offset. RDATA is copied out of
// data so the answer outlives the packet buffer.
func decodeAnswer(data []byte, offset int) (domain.Answer, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Answer{}, 0, err
	}
	if offset+answerFixedLen > len(data) {
		return domain.Answer{}, 0, fmt.Errorf("%w: not enough bytes for TYPE/CLASS/TTL/RDLENGTH at offset %d", domain.ErrParse, offset)
	}
	a := domain.Answer{
		Name:   name,
		Type:   domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class:  domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
		TTL:    binary.BigEndian.Uint32(data[offset+4 : offset+8]),
		Length: binary.BigEndian.Uint16(data[offset+8 : offset+10]),
	}
	offset += answerFixedLen

	end := offset + int(a.Length)
	if end > len(data) {
		return domain.Answer{}, 0, fmt.Errorf("%w: not enough bytes for RDATA: need %d, have %d", domain.ErrParse, a.Length, len(data)-offset)
	}
	a.Data = make([]byte, a.Length)
	copy(a.Data, data[offset:end])
	return a, end, nil
}

func appendQuestion(buf []byte, q domain.Question) ([]byte, error) {
	buf, err := appendName(buf, q.Name)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Class))
	return buf, nil
}

func appendAnswer(buf []byte, a domain.Answer) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	buf, err := appendName(buf, a.Name)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(a.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(a.Class))
	buf = binary.BigEndian.AppendUint32(buf, a.TTL)
	buf = binary.BigEndian.AppendUint16(buf, a.Length)
	buf = append(buf, a.Data...)
	return buf, nil
}
