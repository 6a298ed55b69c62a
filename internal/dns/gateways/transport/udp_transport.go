package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/gateways/wire"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

// UDPTransport implements ServerTransport for standard DNS over UDP (RFC 1035).
// It handles UDP socket management, packet reception/transmission, and wire format
// conversion while delegating DNS logic to the service layer. Every datagram
// is handled in its own goroutine so a slow upstream never stalls the
// receive loop.
type UDPTransport struct {
	addr   string
	conn   *net.UDPConn
	codec  wire.DNSCodec
	logger log.Logger

	// Synchronization for graceful shutdown
	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// NewUDPTransport creates a new UDP transport instance.
func NewUDPTransport(addr string, codec wire.DNSCodec, logger log.Logger) *UDPTransport {
	return &UDPTransport{
		addr:   addr,
		codec:  codec,
		logger: logger,
	}
}

// Start binds the UDP socket and starts the packet handling loop. Cancelling
// ctx cancels in-flight requests but leaves the socket open until Stop.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP transport already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.conn = conn
	t.running = true

	t.logger.Info(map[string]any{
		"transport": string(TransportUDP),
		"address":   conn.LocalAddr().String(),
	}, "DNS transport started")

	go t.listenLoop(ctx, conn, handler)

	return nil
}

// Stop closes the socket, cancels in-flight requests and waits for their
// goroutines to return.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.cancel()

	closeErr := t.conn.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr.Error(),
		}, "Error closing UDP connection")
	}
	t.mu.Unlock()

	t.inflight.Wait()

	t.logger.Info(map[string]any{
		"transport": string(TransportUDP),
		"address":   t.addr,
	}, "DNS transport stopped")

	return closeErr
}

// Address returns the bound socket address while running, which resolves a
// ":0" port to the one the kernel picked, and the configured address
// otherwise.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.running && t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

// listenLoop continuously listens for UDP packets and handles them.
func (t *UDPTransport) listenLoop(ctx context.Context, conn *net.UDPConn, handler resolver.DNSResponder) {
	buffer := make([]byte, wire.MaxUDPMessageSize)

	for {
		n, clientAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				t.logger.Debug(nil, "UDP transport stopping due to closed socket")
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to read UDP packet")
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])

		t.mu.RLock()
		if !t.running {
			t.mu.RUnlock()
			return
		}
		t.inflight.Add(1)
		t.mu.RUnlock()

		go func() {
			defer t.inflight.Done()
			t.handlePacket(ctx, conn, packet, clientAddr, handler)
		}()
	}
}

// handlePacket processes a single UDP DNS packet. Any failure drops the
// packet without a reply.
func (t *UDPTransport) handlePacket(ctx context.Context, conn *net.UDPConn, data []byte, clientAddr *net.UDPAddr, handler resolver.DNSResponder) {
	request, err := t.codec.DecodeMessage(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
			"size":   len(data),
		}, "Failed to decode DNS query")
		return
	}

	response, err := handler.HandleMessage(ctx, request, clientAddr)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client":   clientAddr.String(),
			"query_id": request.Header.ID,
			"error":    err.Error(),
		}, "Failed to handle DNS query")
		return
	}

	responseData, err := t.codec.EncodeMessage(response)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.Header.ID,
			"error":    err.Error(),
		}, "Failed to encode DNS response")
		return
	}

	if ctx.Err() != nil {
		return
	}

	if _, err := conn.WriteToUDP(responseData, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.Header.ID,
			"error":    err.Error(),
		}, "Failed to send DNS response")
		return
	}

	t.logger.Debug(map[string]any{
		"client":   clientAddr.String(),
		"query_id": response.Header.ID,
		"rcode":    response.Header.RCode.String(),
		"answers":  len(response.Answers),
		"size":     len(responseData),
	}, "Sent DNS response")
}

var _ resolver.ServerTransport = (*UDPTransport)(nil)
