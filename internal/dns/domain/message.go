package domain

import "fmt"

const (
	// SyntheticTTL is the TTL of answers produced without an upstream.
	SyntheticTTL = 40
)

// SyntheticData is the RDATA of answers produced without an upstream.
var SyntheticData = []byte{8, 8, 8, 8}

// Message is a decoded DNS message. One is built per inbound packet, mutated
// in place into the response and then encoded.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []Answer
}

// NewQuery builds a single-question recursive query with the given ID.
func NewQuery(id uint16, q Question) *Message {
	return &Message{
		Header: Header{
			ID:      id,
			RD:      true,
			QDCount: 1,
		},
		Questions: []Question{q.Clone()},
	}
}

// SetAnswers attaches the answers and turns the message into a response:
// QR is set and ANCOUNT follows the number of answers attached.
func (m *Message) SetAnswers(answers []Answer) error {
	if len(answers) > 0xFFFF {
		return fmt.Errorf("%w: too many answer records: %d (max 65535)", ErrSerialization, len(answers))
	}
	m.Header.QR = true
	m.Answers = answers
	//gosec:disable G115 -- bounded above.
	m.Header.ANCount = uint16(len(answers))
	return nil
}

// SyntheticAnswers answers every question locally with a fixed A-style record.
func (m *Message) SyntheticAnswers() []Answer {
	answers := make([]Answer, 0, len(m.Questions))
	for _, q := range m.Questions {
		answers = append(answers, SyntheticAnswer(q))
	}
	return answers
}

// SyntheticAnswer echoes the question's name, type and class with TTL 40 and
// RDATA 8.8.8.8.
func SyntheticAnswer(q Question) Answer {
	data := append([]byte(nil), SyntheticData...)
	return Answer{
		Name:   q.Name.Clone(),
		Type:   q.Type,
		Class:  q.Class,
		TTL:    SyntheticTTL,
		Length: uint16(len(data)),
		Data:   data,
	}
}
