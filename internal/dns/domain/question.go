package domain

import (
	"fmt"
	"strings"
)

// Question is one entry of a DNS question section. Questions are treated as
// immutable once built; use Clone before handing one to another goroutine.
type Question struct {
	Name  Name
	Type  RRType
	Class RRClass
}

// NewQuestion builds a Question from a presentation-form name.
func NewQuestion(name string, rrtype RRType, class RRClass) (Question, error) {
	n, err := NameFromString(name)
	if err != nil {
		return Question{}, err
	}
	return Question{Name: n, Type: rrtype, Class: class}, nil
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	return Question{
		Name:  q.Name.Clone(),
		Type:  q.Type,
		Class: q.Class,
	}
}

// CacheKey returns the key used to cache answers to this question.
// Names are compared case-insensitively, so the key is lowercased.
func (q Question) CacheKey() string {
	return GenerateCacheKey(q.Name, q.Type, q.Class)
}

// String renders the question the way dig prints a question line.
func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Class, q.Type)
}

// GenerateCacheKey returns "name|type|class" with the name lowercased.
// The pipe keeps keys unambiguous since it cannot appear unescaped in a name.
func GenerateCacheKey(name Name, t RRType, c RRClass) string {
	return strings.ToLower(name.String()) + "|" + t.String() + "|" + c.String()
}
