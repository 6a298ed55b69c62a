package snapshot

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// Value layout, big-endian:
//
//	expires(8, unix nanos) type(2) class(2) ttl(4) namelen(1) name rdlen(2) rdata
const fixedLen = 8 + 2 + 2 + 4 + 1 + 2

func encodeEntry(e domain.CachedAnswer) ([]byte, error) {
	a := e.Answer
	if len(a.Name) > domain.MaxNameLength {
		return nil, fmt.Errorf("%w: name of %d bytes", domain.ErrSerialization, len(a.Name))
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, fixedLen+len(a.Name)+len(a.Data))
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.ExpiresAt.UnixNano()))
	buf = binary.BigEndian.AppendUint16(buf, uint16(a.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(a.Class))
	buf = binary.BigEndian.AppendUint32(buf, a.TTL)
	buf = append(buf, byte(len(a.Name)))
	buf = append(buf, a.Name...)
	buf = binary.BigEndian.AppendUint16(buf, a.Length)
	buf = append(buf, a.Data...)
	return buf, nil
}

func decodeEntry(key string, v []byte) (domain.CachedAnswer, error) {
	if len(v) < fixedLen {
		return domain.CachedAnswer{}, fmt.Errorf("%w: snapshot value of %d bytes", domain.ErrParse, len(v))
	}
	expires := int64(binary.BigEndian.Uint64(v[0:8]))
	rrtype := domain.RRType(binary.BigEndian.Uint16(v[8:10]))
	class := domain.RRClass(binary.BigEndian.Uint16(v[10:12]))
	ttl := binary.BigEndian.Uint32(v[12:16])
	nameLen := int(v[16])
	off := 17
	if len(v) < off+nameLen+2 {
		return domain.CachedAnswer{}, fmt.Errorf("%w: snapshot name truncated", domain.ErrParse)
	}
	name := domain.Name(append([]byte(nil), v[off:off+nameLen]...))
	off += nameLen
	rdlen := int(binary.BigEndian.Uint16(v[off : off+2]))
	off += 2
	if len(v) != off+rdlen {
		return domain.CachedAnswer{}, fmt.Errorf("%w: snapshot rdata is %d bytes, header says %d", domain.ErrParse, len(v)-off, rdlen)
	}
	answer, err := domain.NewAnswer(name, rrtype, class, ttl, append([]byte(nil), v[off:]...))
	if err != nil {
		return domain.CachedAnswer{}, err
	}
	return domain.CachedAnswer{
		Key:       key,
		Answer:    answer,
		ExpiresAt: time.Unix(0, expires),
	}, nil
}
