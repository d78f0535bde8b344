package kaspa

import "fmt"

// Errors returned by the client. Callers classify with errors.Is; the
// wrapped cause carries the transport or node detail.
var (
	// ErrConnection covers dialing failures and streams that break while a
	// call is in flight.
	ErrConnection = fmt.Errorf("node connection failed")
	// ErrEmptyResponse means the stream ended before the node answered.
	ErrEmptyResponse = fmt.Errorf("node closed stream without responding")
	// ErrProtocolMismatch means the node answered with a payload variant
	// that does not match the request.
	ErrProtocolMismatch = fmt.Errorf("node response does not match request")
	// ErrRemote carries a domain error the node reported inside a response
	// payload. The node understood the request and rejected it.
	ErrRemote = fmt.Errorf("node rejected request")
	// ErrInvalidArgument means the request was rejected locally, before any
	// stream was opened.
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
