// Package protowire implements the wire protocol spoken by a kaspad node
// over its gRPC MessageStream endpoint.
//
// Every message exchanged with the node is an envelope: a KaspadRequest on
// the way out, a KaspadResponse on the way in. An envelope carries exactly
// one payload variant (get-block, submit-transaction, and so on) plus a
// request identifier used for tracing. Response envelopes additionally carry
// an optional node-reported RPCError inside their payload, which is distinct
// from a transport failure.
//
// Messages are encoded in the protobuf binary format. The encoders and
// decoders are written directly against the low-level wire primitives, so no
// code generation step is required; unknown fields received from newer nodes
// are skipped. Optional nested messages (outpoints, UTXO entries, script
// public keys) are represented as pointers and stay nil when absent on the
// wire, so consumers can tell "not supplied" from a zero value.
package protowire
