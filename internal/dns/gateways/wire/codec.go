package wire

import (
	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// MaxUDPMessageSize is the largest DNS message carried over plain UDP
// without EDNS (RFC 1035 4.2.1).
const MaxUDPMessageSize = 512

// DNSCodec converts whole DNS messages to and from wire format. The same
// codec serves inbound client packets, outbound responses, and the queries
// and replies exchanged with an upstream resolver.
type DNSCodec interface {
	DecodeMessage(data []byte) (*domain.Message, error)
	EncodeMessage(msg *domain.Message) ([]byte, error)
}
