package transport

import (
	"fmt"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/gateways/wire"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

// NewTransport creates a transport of the given type bound to addr once
// started. Only UDP is served.
func NewTransport(transportType TransportType, addr string, codec wire.DNSCodec, logger log.Logger) (resolver.ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, codec, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}
