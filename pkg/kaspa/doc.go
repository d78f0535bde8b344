// Package kaspa is a client for the kaspad gRPC message stream.
//
// A Channel holds one gRPC connection to a node and hands out Streams. The
// Client issues unary calls over it, opening a dedicated stream per call so
// concurrent requests never interleave, and classifies failures into a
// small set of sentinel errors (ErrConnection, ErrEmptyResponse,
// ErrProtocolMismatch, ErrRemote, ErrInvalidArgument) that callers test
// with errors.Is. SubscribeUtxoChanges opens a long-lived stream instead
// and exposes pushed notifications through a pull-based Subscription.
//
// There is no retry, reconnect, or response caching: a broken stream
// surfaces as an error and the caller decides what to do.
package kaspa
