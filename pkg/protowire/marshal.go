package protowire

import (
	"math"

	wire "google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for the envelope messages. The payload variants occupy a
// dedicated number range so new request kinds never collide with envelope
// metadata.
const (
	envelopeFieldID = 1

	fieldGetBlock             = 10
	fieldSubmitTransaction    = 11
	fieldGetBlockDagInfo      = 12
	fieldGetUtxosByAddresses  = 13
	fieldNotifyUtxosChanged   = 14
	fieldUtxosChangedNotified = 15
)

// Scalar fields follow proto3 presence rules: zero values are omitted.

func appendString(b []byte, num wire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = wire.AppendTag(b, num, wire.BytesType)
	return wire.AppendString(b, s)
}

func appendStrings(b []byte, num wire.Number, ss []string) []byte {
	for _, s := range ss {
		b = wire.AppendTag(b, num, wire.BytesType)
		b = wire.AppendString(b, s)
	}
	return b
}

func appendUint64(b []byte, num wire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = wire.AppendTag(b, num, wire.VarintType)
	return wire.AppendVarint(b, v)
}

func appendUint32(b []byte, num wire.Number, v uint32) []byte {
	return appendUint64(b, num, uint64(v))
}

func appendInt64(b []byte, num wire.Number, v int64) []byte {
	return appendUint64(b, num, uint64(v))
}

func appendBool(b []byte, num wire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = wire.AppendTag(b, num, wire.VarintType)
	return wire.AppendVarint(b, 1)
}

func appendDouble(b []byte, num wire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = wire.AppendTag(b, num, wire.Fixed64Type)
	return wire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num wire.Number, body []byte) []byte {
	b = wire.AppendTag(b, num, wire.BytesType)
	return wire.AppendBytes(b, body)
}

func marshalRPCError(m *RPCError) []byte {
	return appendString(nil, 1, m.Message)
}

func appendRPCError(b []byte, num wire.Number, m *RPCError) []byte {
	if m == nil {
		return b
	}
	return appendMessage(b, num, marshalRPCError(m))
}

func marshalOutpoint(m *RpcOutpoint) []byte {
	b := appendString(nil, 1, m.TransactionID)
	return appendUint32(b, 2, m.Index)
}

func marshalScriptPublicKey(m *RpcScriptPublicKey) []byte {
	b := appendUint32(nil, 1, m.Version)
	return appendString(b, 2, m.Script)
}

func marshalUtxoEntry(m *RpcUtxoEntry) []byte {
	b := appendUint64(nil, 1, m.Amount)
	if m.ScriptPublicKey != nil {
		b = appendMessage(b, 2, marshalScriptPublicKey(m.ScriptPublicKey))
	}
	b = appendUint64(b, 3, m.BlockDaaScore)
	return appendBool(b, 4, m.IsCoinbase)
}

func marshalUtxosByAddressesEntry(m *UtxosByAddressesEntry) []byte {
	b := appendString(nil, 1, m.Address)
	if m.Outpoint != nil {
		b = appendMessage(b, 2, marshalOutpoint(m.Outpoint))
	}
	if m.UtxoEntry != nil {
		b = appendMessage(b, 3, marshalUtxoEntry(m.UtxoEntry))
	}
	return b
}

func appendUtxosByAddressesEntries(b []byte, num wire.Number, entries []*UtxosByAddressesEntry) []byte {
	for _, e := range entries {
		if e == nil {
			continue
		}
		b = appendMessage(b, num, marshalUtxosByAddressesEntry(e))
	}
	return b
}

func marshalTransactionVerboseData(m *RpcTransactionVerboseData) []byte {
	b := appendString(nil, 1, m.TransactionID)
	b = appendString(b, 2, m.Hash)
	return appendUint64(b, 3, m.Mass)
}

func marshalTransactionInput(m *RpcTransactionInput) []byte {
	var b []byte
	if m.PreviousOutpoint != nil {
		b = appendMessage(b, 1, marshalOutpoint(m.PreviousOutpoint))
	}
	b = appendString(b, 2, m.SignatureScript)
	b = appendUint64(b, 3, m.Sequence)
	return appendUint32(b, 4, m.SigOpCount)
}

func marshalTransactionOutput(m *RpcTransactionOutput) []byte {
	b := appendUint64(nil, 1, m.Amount)
	if m.ScriptPublicKey != nil {
		b = appendMessage(b, 2, marshalScriptPublicKey(m.ScriptPublicKey))
	}
	return b
}

func marshalTransaction(m *RpcTransaction) []byte {
	b := appendUint32(nil, 1, m.Version)
	for _, in := range m.Inputs {
		if in == nil {
			continue
		}
		b = appendMessage(b, 2, marshalTransactionInput(in))
	}
	for _, out := range m.Outputs {
		if out == nil {
			continue
		}
		b = appendMessage(b, 3, marshalTransactionOutput(out))
	}
	b = appendUint64(b, 4, m.LockTime)
	b = appendString(b, 5, m.SubnetworkID)
	b = appendUint64(b, 6, m.Gas)
	b = appendString(b, 7, m.Payload)
	b = appendUint64(b, 8, m.Mass)
	if m.VerboseData != nil {
		b = appendMessage(b, 9, marshalTransactionVerboseData(m.VerboseData))
	}
	return b
}

func marshalBlockHeader(m *RpcBlockHeader) []byte {
	b := appendUint32(nil, 1, m.Version)
	b = appendString(b, 2, m.HashMerkleRoot)
	b = appendString(b, 3, m.AcceptedIDMerkleRoot)
	b = appendString(b, 4, m.UtxoCommitment)
	b = appendInt64(b, 5, m.Timestamp)
	b = appendUint32(b, 6, m.Bits)
	b = appendUint64(b, 7, m.Nonce)
	b = appendUint64(b, 8, m.DaaScore)
	b = appendString(b, 9, m.BlueWork)
	b = appendUint64(b, 10, m.BlueScore)
	b = appendString(b, 11, m.PruningPoint)
	return appendString(b, 12, m.Hash)
}

func marshalBlockVerboseData(m *RpcBlockVerboseData) []byte {
	b := appendString(nil, 1, m.Hash)
	b = appendDouble(b, 2, m.Difficulty)
	b = appendString(b, 3, m.SelectedParentHash)
	b = appendStrings(b, 4, m.TransactionIDs)
	b = appendBool(b, 5, m.IsHeaderOnly)
	b = appendUint64(b, 6, m.BlueScore)
	return appendBool(b, 7, m.IsChainBlock)
}

func marshalBlock(m *RpcBlock) []byte {
	var b []byte
	if m.Header != nil {
		b = appendMessage(b, 1, marshalBlockHeader(m.Header))
	}
	for _, tx := range m.Transactions {
		if tx == nil {
			continue
		}
		b = appendMessage(b, 2, marshalTransaction(tx))
	}
	if m.VerboseData != nil {
		b = appendMessage(b, 3, marshalBlockVerboseData(m.VerboseData))
	}
	return b
}

func (m *GetBlockRequestMessage) marshalRequestPayload(b []byte) ([]byte, error) {
	body := appendString(nil, 1, m.Hash)
	body = appendBool(body, 2, m.IncludeTransactions)
	return appendMessage(b, fieldGetBlock, body), nil
}

func (m *SubmitTransactionRequestMessage) marshalRequestPayload(b []byte) ([]byte, error) {
	var body []byte
	if m.Transaction != nil {
		body = appendMessage(body, 1, marshalTransaction(m.Transaction))
	}
	body = appendBool(body, 2, m.AllowOrphan)
	return appendMessage(b, fieldSubmitTransaction, body), nil
}

func (m *GetBlockDagInfoRequestMessage) marshalRequestPayload(b []byte) ([]byte, error) {
	return appendMessage(b, fieldGetBlockDagInfo, nil), nil
}

func (m *GetUtxosByAddressesRequestMessage) marshalRequestPayload(b []byte) ([]byte, error) {
	body := appendStrings(nil, 1, m.Addresses)
	return appendMessage(b, fieldGetUtxosByAddresses, body), nil
}

func (m *NotifyUtxosChangedRequestMessage) marshalRequestPayload(b []byte) ([]byte, error) {
	body := appendUint64(nil, 1, uint64(m.Command))
	body = appendStrings(body, 2, m.Addresses)
	return appendMessage(b, fieldNotifyUtxosChanged, body), nil
}

func (m *GetBlockResponseMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	var body []byte
	if m.Block != nil {
		body = appendMessage(body, 1, marshalBlock(m.Block))
	}
	body = appendRPCError(body, 2, m.Error)
	return appendMessage(b, fieldGetBlock, body), nil
}

func (m *SubmitTransactionResponseMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	body := appendString(nil, 1, m.TransactionID)
	body = appendRPCError(body, 2, m.Error)
	return appendMessage(b, fieldSubmitTransaction, body), nil
}

func (m *GetBlockDagInfoResponseMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	body := appendStrings(nil, 1, m.TipHashes)
	body = appendUint64(body, 2, m.BlockCount)
	body = appendUint64(body, 3, m.HeaderCount)
	body = appendDouble(body, 4, m.Difficulty)
	body = appendInt64(body, 5, m.PastMedianTime)
	body = appendStrings(body, 6, m.VirtualParentHashes)
	body = appendString(body, 7, m.PruningPointHash)
	body = appendUint64(body, 8, m.VirtualDaaScore)
	body = appendRPCError(body, 9, m.Error)
	return appendMessage(b, fieldGetBlockDagInfo, body), nil
}

func (m *GetUtxosByAddressesResponseMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	body := appendUtxosByAddressesEntries(nil, 1, m.Entries)
	body = appendRPCError(body, 2, m.Error)
	return appendMessage(b, fieldGetUtxosByAddresses, body), nil
}

func (m *NotifyUtxosChangedResponseMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	body := appendRPCError(nil, 1, m.Error)
	return appendMessage(b, fieldNotifyUtxosChanged, body), nil
}

func (m *UtxosChangedNotificationMessage) marshalResponsePayload(b []byte) ([]byte, error) {
	body := appendUtxosByAddressesEntries(nil, 1, m.Added)
	body = appendUtxosByAddressesEntries(body, 2, m.Removed)
	return appendMessage(b, fieldUtxosChangedNotified, body), nil
}
