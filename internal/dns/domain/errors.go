package domain

import "errors"

// Error kinds shared by the codec, the upstream gateway and the resolver
// service. Concrete errors wrap one of these with fmt.Errorf("%w: ...") so
// callers can classify failures with errors.Is.
var (
	// ErrIO marks socket bind, dial, send or receive failures.
	ErrIO = errors.New("i/o error")

	// ErrParse marks malformed or truncated wire data.
	ErrParse = errors.New("parse error")

	// ErrResolution marks a forwarded question that produced no answer.
	ErrResolution = errors.New("resolution error")

	// ErrSerialization marks an in-memory message that could not be encoded.
	ErrSerialization = errors.New("serialization error")
)
