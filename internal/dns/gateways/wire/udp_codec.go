// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035, including name
// compression on the decode path.
package wire

import (
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// udpCodec implements the DNSCodec interface for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
// The logger is used for logging within the codec.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{
		logger: logger,
	}
}

// DecodeMessage parses raw packet bytes into a Message.
func (c *udpCodec) DecodeMessage(data []byte) (*domain.Message, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.logger.Debug(map[string]any{
			"step":  "decode_failed",
			"size":  len(data),
			"error": err.Error(),
		}, "Failed to decode DNS message")
		return nil, err
	}

	c.logger.Debug(map[string]any{
		"step":   "decoded",
		"id":     msg.Header.ID,
		"opcode": msg.Header.Opcode,
		"qd":     len(msg.Questions),
		"an":     len(msg.Answers),
	}, "Decoded DNS message")

	return msg, nil
}

// EncodeMessage serializes a Message into a binary format suitable for sending via UDP.
func (c *udpCodec) EncodeMessage(msg *domain.Message) ([]byte, error) {
	data, err := EncodeMessage(msg)
	if err != nil {
		return nil, err
	}

	c.logger.Debug(map[string]any{
		"step":  "final_packet",
		"id":    msg.Header.ID,
		"qr":    msg.Header.QR,
		"rcode": msg.Header.RCode.String(),
		"qd":    len(msg.Questions),
		"an":    len(msg.Answers),
		"size":  len(data),
		"raw":   fmt.Sprintf("%x", data),
	}, "Encoded DNS message")

	return data, nil
}

var _ DNSCodec = &udpCodec{}
