package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// UpstreamClient forwards a single question and returns the first answer.
type UpstreamClient interface {
	Resolve(ctx context.Context, q domain.Question) (domain.Answer, error)
}

// AnswerCache stores upstream answers by question cache key. Implementations
// must be safe for concurrent use.
type AnswerCache interface {
	Get(key string) (domain.Answer, bool)
	Set(key string, answer domain.Answer, ttl time.Duration)
}

// Blocklist reports whether a presentation-form name must not be answered.
type Blocklist interface {
	IsBlocked(name string) bool
}

type DNSResponder interface {
	// HandleMessage turns a decoded request into the response to send back.
	// The transport handles all network protocol details - the handler only sees domain objects.
	// A non-nil error means no response is sent.
	HandleMessage(ctx context.Context, msg *domain.Message, clientAddr net.Addr) (*domain.Message, error)
}

// ServerTransport defines the interface for DNS server transport implementations.
type ServerTransport interface {
	// Start begins listening for requests and handling them via the provided handler.
	// The transport handles all network protocol concerns and wire format conversion.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop gracefully shuts down the transport, closing connections and cleaning up resources.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
