package protowire

import (
	"fmt"

	wire "google.golang.org/protobuf/encoding/protowire"
)

// Envelope decoding errors.
var (
	ErrTruncatedMessage = fmt.Errorf("truncated protowire message")
	ErrNoPayload        = fmt.Errorf("envelope carries no payload")
	ErrMultiplePayloads = fmt.Errorf("envelope carries more than one payload")
)

// KaspadRequest is the outbound envelope. ID is a process-unique request
// identifier stamped by the caller; Payload holds exactly one request
// variant.
type KaspadRequest struct {
	ID      uint64
	Payload RequestPayload
}

// Marshal encodes the request envelope into protobuf binary form.
// The envelope must carry exactly one payload.
func (r *KaspadRequest) Marshal() ([]byte, error) {
	if r.Payload == nil {
		return nil, ErrNoPayload
	}
	b := appendUint64(nil, envelopeFieldID, r.ID)
	return r.Payload.marshalRequestPayload(b)
}

// Unmarshal decodes a request envelope. Used by fakes and tests that play
// the node side of the protocol.
func (r *KaspadRequest) Unmarshal(data []byte) error {
	r.ID = 0
	r.Payload = nil

	for len(data) > 0 {
		num, typ, n := wire.ConsumeTag(data)
		if n < 0 {
			return ErrTruncatedMessage
		}
		data = data[n:]

		switch num {
		case envelopeFieldID:
			v, n := wire.ConsumeVarint(data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			r.ID = v
			data = data[n:]
		case fieldGetBlock, fieldSubmitTransaction, fieldGetBlockDagInfo,
			fieldGetUtxosByAddresses, fieldNotifyUtxosChanged:
			if r.Payload != nil {
				return ErrMultiplePayloads
			}
			body, n := wire.ConsumeBytes(data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			payload, err := unmarshalRequestPayload(num, body)
			if err != nil {
				return err
			}
			r.Payload = payload
			data = data[n:]
		default:
			n := wire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			data = data[n:]
		}
	}

	if r.Payload == nil {
		return ErrNoPayload
	}
	return nil
}

// KaspadResponse is the inbound envelope. A nil Payload means the node sent
// a variant this gateway does not understand; subscription consumers skip
// such envelopes, unary callers treat them as a contract violation.
type KaspadResponse struct {
	ID      uint64
	Payload ResponsePayload
}

// Marshal encodes the response envelope. Used by fakes and tests that play
// the node side of the protocol.
func (r *KaspadResponse) Marshal() ([]byte, error) {
	if r.Payload == nil {
		return nil, ErrNoPayload
	}
	b := appendUint64(nil, envelopeFieldID, r.ID)
	return r.Payload.marshalResponsePayload(b)
}

// Unmarshal decodes a response envelope. Unknown payload variants leave
// Payload nil rather than failing, so a newer node does not break the
// stream.
func (r *KaspadResponse) Unmarshal(data []byte) error {
	r.ID = 0
	r.Payload = nil
	seenPayload := false

	for len(data) > 0 {
		num, typ, n := wire.ConsumeTag(data)
		if n < 0 {
			return ErrTruncatedMessage
		}
		data = data[n:]

		switch num {
		case envelopeFieldID:
			v, n := wire.ConsumeVarint(data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			r.ID = v
			data = data[n:]
		case fieldGetBlock, fieldSubmitTransaction, fieldGetBlockDagInfo,
			fieldGetUtxosByAddresses, fieldNotifyUtxosChanged, fieldUtxosChangedNotified:
			if seenPayload {
				return ErrMultiplePayloads
			}
			seenPayload = true
			body, n := wire.ConsumeBytes(data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			payload, err := unmarshalResponsePayload(num, body)
			if err != nil {
				return err
			}
			r.Payload = payload
			data = data[n:]
		default:
			n := wire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return ErrTruncatedMessage
			}
			data = data[n:]
		}
	}
	return nil
}
