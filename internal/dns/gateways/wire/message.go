package wire

import (
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// DecodeMessage parses a whole packet: the header, QDCOUNT questions and, if
// present, ANCOUNT answers, each section starting where the previous one
// ended. A non-standard OPCODE marks the message NOTIMP. Authority and
// additional sections are not read.
func DecodeMessage(data []byte) (*domain.Message, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{Header: header}
	offset := domain.HeaderSize

	msg.Questions = make([]domain.Question, 0, sectionCap(header.QDCount, len(data)))
	for i := 0; i < int(header.QDCount); i++ {
		q, next, err := decodeQuestion(data, offset)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		msg.Questions = append(msg.Questions, q)
		offset = next
	}

	if !header.IsStandardQuery() {
		msg.Header.RCode = domain.RCodeNotImp
	}

	if header.ANCount > 0 {
		msg.Answers = make([]domain.Answer, 0, sectionCap(header.ANCount, len(data)))
		for i := 0; i < int(header.ANCount); i++ {
			a, next, err := decodeAnswer(data, offset)
			if err != nil {
				return nil, fmt.Errorf("answer %d: %w", i, err)
			}
			msg.Answers = append(msg.Answers, a)
			offset = next
		}
	}

	return msg, nil
}

// EncodeMessage serializes the header, every question and every answer into
// one contiguous packet. QDCOUNT and ANCOUNT are written from the sections
// actually present; NSCOUNT and ARCOUNT are zero because those sections are
// never emitted. Oversized messages are not truncated.
func EncodeMessage(msg *domain.Message) ([]byte, error) {
	if len(msg.Questions) > 0xFFFF {
		return nil, fmt.Errorf("%w: too many questions: %d (max 65535)", domain.ErrSerialization, len(msg.Questions))
	}
	if len(msg.Answers) > 0xFFFF {
		return nil, fmt.Errorf("%w: too many answer records: %d (max 65535)", domain.ErrSerialization, len(msg.Answers))
	}

	h := msg.Header
	h.QDCount = uint16(len(msg.Questions))
	h.ANCount = uint16(len(msg.Answers))
	h.NSCount = 0
	h.ARCount = 0

	header := EncodeHeader(h)
	buf := make([]byte, 0, MaxUDPMessageSize)
	buf = append(buf, header[:]...)

	var err error
	for i, q := range msg.Questions {
		if buf, err = appendQuestion(buf, q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	for i, a := range msg.Answers {
		if buf, err = appendAnswer(buf, a); err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
	}
	return buf, nil
}

// sectionCap keeps a hostile count field from forcing a large allocation:
// no record is shorter than 5 bytes, so the packet length bounds the count.
func sectionCap(count uint16, packetLen int) int {
	limit := packetLen / 5
	if int(count) < limit {
		return int(count)
	}
	return limit
}
