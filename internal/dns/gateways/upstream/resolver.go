// Package upstream forwards single questions to a recursive resolver over
// UDP and returns the first answer of its reply.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/domain"
	"github.com/haukened/fwd-dns/internal/dns/gateways/wire"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

// Error message constants for consistent error handling
const (
	errNoServerProvided = "no upstream DNS server provided"
	errCodecRequired    = "DNS codec is required"
	errFailedToConnect  = "%w: failed to connect to %s: %w"
	errEncodeFailed     = "encode failed: %w"
	errSetDeadline      = "%w: failed to set connection deadline: %w"
	errWriteFailed      = "%w: write failed: %w"
	errReadFailed       = "%w: read failed: %w"
	errIDMismatch       = "%w: reply id %d does not match query id %d"
	errNoAnswers        = "%w: upstream returned no answers for %s"
)

// Resolver sends one query per call on a freshly dialled UDP socket. It
// holds no per-query state, so a single Resolver serves concurrent callers.
type Resolver struct {
	server  string        // upstream address, e.g. "1.1.1.1:53"
	timeout time.Duration // zero means wait until ctx is done
	codec   wire.DNSCodec
	dial    DialFunc
	ids     IDSource
	logger  log.Logger
}

// DialFunc defines a function type for establishing a network connection.
// It takes a context for cancellation, the network type (e.g., "tcp", "udp"),
// and the address to connect to, returning a net.Conn and an error if any occurs.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options defines configuration parameters for the upstream DNS resolver.
type Options struct {
	// required parameters
	Server string
	Codec  wire.DNSCodec
	// zero leaves the exchange bounded only by the caller's context
	Timeout time.Duration
	// options to inject for testing purposes
	Dial   DialFunc
	IDs    IDSource
	Logger log.Logger
}

// NewResolver creates a new upstream resolver with the specified options.
// Returns an error if the server address is empty or the codec is not
// provided. Dial, IDs and Logger fall back to a net.Dialer, crypto-random
// IDs and the global logger.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Server == "" {
		return nil, errors.New(errNoServerProvided)
	}
	if opts.Codec == nil {
		return nil, errors.New(errCodecRequired)
	}
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.IDs == nil {
		opts.IDs = RandomIDs{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Resolver{
		server:  opts.Server,
		timeout: opts.Timeout,
		codec:   opts.Codec,
		dial:    opts.Dial,
		ids:     opts.IDs,
		logger:  opts.Logger,
	}, nil
}

// Server returns the upstream address queries are sent to.
func (r *Resolver) Server() string {
	return r.server
}

// Resolve forwards q upstream and returns the first answer of the reply.
// There is no retry. Errors wrap domain.ErrIO, domain.ErrParse,
// domain.ErrResolution or domain.ErrSerialization.
func (r *Resolver) Resolve(ctx context.Context, q domain.Question) (domain.Answer, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	query := domain.NewQuery(r.ids.NextID(), q)
	reply, err := r.exchange(ctx, query)
	if err != nil {
		return domain.Answer{}, err
	}
	r.logger.Debug(map[string]any{
		"server":  r.server,
		"id":      query.Header.ID,
		"reply":   reply.Header.ID,
		"rcode":   reply.Header.RCode.String(),
		"answers": len(reply.Answers),
	}, "upstream reply")
	if reply.Header.ID != query.Header.ID {
		return domain.Answer{}, fmt.Errorf(errIDMismatch, domain.ErrResolution, reply.Header.ID, query.Header.ID)
	}
	if len(reply.Answers) == 0 {
		return domain.Answer{}, fmt.Errorf(errNoAnswers, domain.ErrResolution, q)
	}
	return reply.Answers[0], nil
}

// exchange performs one write/read round trip with context cancellation
// support.
func (r *Resolver) exchange(ctx context.Context, query *domain.Message) (*domain.Message, error) {
	queryBytes, err := r.codec.EncodeMessage(query)
	if err != nil {
		return nil, fmt.Errorf(errEncodeFailed, err)
	}

	conn, err := r.dial(ctx, "udp", r.server)
	if err != nil {
		return nil, fmt.Errorf(errFailedToConnect, domain.ErrIO, r.server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf(errSetDeadline, domain.ErrIO, err)
		}
	}

	type result struct {
		reply *domain.Message
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		if _, err := conn.Write(queryBytes); err != nil {
			resultChan <- result{err: fmt.Errorf(errWriteFailed, domain.ErrIO, err)}
			return
		}

		buffer := make([]byte, wire.MaxUDPMessageSize)
		n, err := conn.Read(buffer)
		if err != nil {
			resultChan <- result{err: fmt.Errorf(errReadFailed, domain.ErrIO, err)}
			return
		}

		reply, err := r.codec.DecodeMessage(buffer[:n])
		resultChan <- result{reply: reply, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.reply, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, ctx.Err())
	}
}

var _ resolver.UpstreamClient = (*Resolver)(nil)
