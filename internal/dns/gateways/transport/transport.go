// Package transport moves DNS messages between the network and the resolver
// service. It owns the sockets and the wire conversion so the service layer
// works purely with domain types.
package transport

// TransportType names a supported listener protocol.
type TransportType string

const (
	// TransportUDP represents standard DNS over UDP (RFC 1035)
	TransportUDP TransportType = "udp"
)
