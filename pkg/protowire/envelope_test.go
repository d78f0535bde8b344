package protowire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wire "google.golang.org/protobuf/encoding/protowire"
)

func TestRequestEnvelopeRoundTrip(t *testing.T) {
	req := &KaspadRequest{
		ID: 42,
		Payload: &GetBlockRequestMessage{
			Hash:                "a1b2c3",
			IncludeTransactions: true,
		},
	}

	data, err := req.Marshal()
	require.NoError(t, err)

	var got KaspadRequest
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, uint64(42), got.ID)

	payload, ok := got.Payload.(*GetBlockRequestMessage)
	require.True(t, ok)
	assert.Equal(t, "a1b2c3", payload.Hash)
	assert.True(t, payload.IncludeTransactions)
}

func TestRequestEnvelopeRequiresPayload(t *testing.T) {
	req := &KaspadRequest{ID: 7}
	_, err := req.Marshal()
	assert.ErrorIs(t, err, ErrNoPayload)

	// An envelope carrying only an ID is equally invalid on decode.
	data := appendUint64(nil, envelopeFieldID, 7)
	var got KaspadRequest
	assert.ErrorIs(t, got.Unmarshal(data), ErrNoPayload)
}

func TestRequestEnvelopeRejectsMultiplePayloads(t *testing.T) {
	data := appendUint64(nil, envelopeFieldID, 1)
	data, err := (&GetBlockDagInfoRequestMessage{}).marshalRequestPayload(data)
	require.NoError(t, err)
	data, err = (&GetUtxosByAddressesRequestMessage{Addresses: []string{"kaspa:qq"}}).marshalRequestPayload(data)
	require.NoError(t, err)

	var got KaspadRequest
	assert.ErrorIs(t, got.Unmarshal(data), ErrMultiplePayloads)
}

func TestResponseEnvelopeRoundTrip(t *testing.T) {
	resp := &KaspadResponse{
		ID: 9,
		Payload: &SubmitTransactionResponseMessage{
			TransactionID: "deadbeef",
		},
	}

	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, uint64(9), got.ID)

	payload, ok := got.Payload.(*SubmitTransactionResponseMessage)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", payload.TransactionID)
	assert.Nil(t, payload.RPCError())
}

func TestResponseEnvelopeCarriesNodeError(t *testing.T) {
	resp := &KaspadResponse{
		ID: 3,
		Payload: &GetBlockResponseMessage{
			Error: &RPCError{Message: "block not found"},
		},
	}

	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))

	payload, ok := got.Payload.(*GetBlockResponseMessage)
	require.True(t, ok)
	assert.Nil(t, payload.Block)
	require.NotNil(t, payload.RPCError())
	assert.Equal(t, "block not found", payload.RPCError().Message)
}

func TestResponseEnvelopeToleratesUnknownVariant(t *testing.T) {
	// A payload field number outside the range this gateway understands.
	data := appendUint64(nil, envelopeFieldID, 11)
	data = appendMessage(data, 99, appendString(nil, 1, "from a newer node"))

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, uint64(11), got.ID)
	assert.Nil(t, got.Payload)
}

func TestResponseEnvelopeSkipsUnknownFields(t *testing.T) {
	resp := &KaspadResponse{
		ID:      5,
		Payload: &NotifyUtxosChangedResponseMessage{},
	}
	data, err := resp.Marshal()
	require.NoError(t, err)

	// Splice in an unknown varint field between the known ones.
	extra := wire.AppendTag(nil, 200, wire.VarintType)
	extra = wire.AppendVarint(extra, 77)
	data = append(extra, data...)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, uint64(5), got.ID)
	assert.IsType(t, &NotifyUtxosChangedResponseMessage{}, got.Payload)
}

func TestResponseEnvelopeTruncated(t *testing.T) {
	resp := &KaspadResponse{
		ID:      2,
		Payload: &GetBlockDagInfoResponseMessage{BlockCount: 100},
	}
	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	assert.ErrorIs(t, got.Unmarshal(data[:len(data)-1]), ErrTruncatedMessage)
}

func TestNotificationAbsentFieldsStayAbsent(t *testing.T) {
	resp := &KaspadResponse{
		Payload: &UtxosChangedNotificationMessage{
			Added: []*UtxosByAddressesEntry{
				{
					Address:  "kaspa:qqfull",
					Outpoint: &RpcOutpoint{TransactionID: "tx1", Index: 1},
					UtxoEntry: &RpcUtxoEntry{
						Amount:          5000,
						ScriptPublicKey: &RpcScriptPublicKey{Version: 0, Script: "20ab"},
						BlockDaaScore:   1234,
						IsCoinbase:      true,
					},
				},
			},
			Removed: []*UtxosByAddressesEntry{
				// Removed entries carry only the outpoint.
				{
					Address:  "kaspa:qqspent",
					Outpoint: &RpcOutpoint{TransactionID: "tx0", Index: 0},
				},
			},
		},
	}

	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))

	payload, ok := got.Payload.(*UtxosChangedNotificationMessage)
	require.True(t, ok)
	require.Len(t, payload.Added, 1)
	require.Len(t, payload.Removed, 1)

	added := payload.Added[0]
	require.NotNil(t, added.UtxoEntry)
	assert.Equal(t, uint64(5000), added.UtxoEntry.Amount)
	assert.True(t, added.UtxoEntry.IsCoinbase)
	require.NotNil(t, added.UtxoEntry.ScriptPublicKey)
	assert.Equal(t, "20ab", added.UtxoEntry.ScriptPublicKey.Script)

	removed := payload.Removed[0]
	assert.Equal(t, "kaspa:qqspent", removed.Address)
	require.NotNil(t, removed.Outpoint)
	assert.Equal(t, uint32(0), removed.Outpoint.Index)
	assert.Nil(t, removed.UtxoEntry, "absent utxo entry must not be synthesized")
}

func TestGetBlockDagInfoResponseRoundTrip(t *testing.T) {
	resp := &KaspadResponse{
		ID: 8,
		Payload: &GetBlockDagInfoResponseMessage{
			TipHashes:           []string{"t1", "t2"},
			BlockCount:          1000,
			HeaderCount:         1024,
			Difficulty:          3.5,
			PastMedianTime:      1700000000123,
			VirtualParentHashes: []string{"v1"},
			PruningPointHash:    "pp",
			VirtualDaaScore:     98765,
		},
	}

	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))

	payload, ok := got.Payload.(*GetBlockDagInfoResponseMessage)
	require.True(t, ok)
	assert.Equal(t, []string{"t1", "t2"}, payload.TipHashes)
	assert.Equal(t, uint64(1000), payload.BlockCount)
	assert.Equal(t, uint64(1024), payload.HeaderCount)
	assert.Equal(t, 3.5, payload.Difficulty)
	assert.Equal(t, int64(1700000000123), payload.PastMedianTime)
	assert.Equal(t, []string{"v1"}, payload.VirtualParentHashes)
	assert.Equal(t, "pp", payload.PruningPointHash)
	assert.Equal(t, uint64(98765), payload.VirtualDaaScore)
}

func TestBlockRoundTrip(t *testing.T) {
	block := &RpcBlock{
		Header: &RpcBlockHeader{
			Version:        1,
			HashMerkleRoot: "merkle",
			Timestamp:      1700000000000,
			Bits:           0x1d00ffff,
			Nonce:          424242,
			DaaScore:       555,
			BlueWork:       "1a2b",
			BlueScore:      777,
			PruningPoint:   "pp",
			Hash:           "blockhash",
		},
		Transactions: []*RpcTransaction{
			{
				Version: 0,
				Inputs: []*RpcTransactionInput{
					{
						PreviousOutpoint: &RpcOutpoint{TransactionID: "prev", Index: 2},
						SignatureScript:  "41aa",
						Sequence:         1,
						SigOpCount:       1,
					},
				},
				Outputs: []*RpcTransactionOutput{
					{
						Amount:          100_000_000,
						ScriptPublicKey: &RpcScriptPublicKey{Script: "20cd"},
					},
				},
				SubnetworkID: "0000000000000000000000000000000000000001",
				VerboseData:  &RpcTransactionVerboseData{TransactionID: "txid", Hash: "txhash", Mass: 300},
			},
		},
		VerboseData: &RpcBlockVerboseData{
			Hash:           "blockhash",
			Difficulty:     12.25,
			TransactionIDs: []string{"txid"},
			BlueScore:      777,
			IsChainBlock:   true,
		},
	}

	resp := &KaspadResponse{ID: 1, Payload: &GetBlockResponseMessage{Block: block}}
	data, err := resp.Marshal()
	require.NoError(t, err)

	var got KaspadResponse
	require.NoError(t, got.Unmarshal(data))

	payload, ok := got.Payload.(*GetBlockResponseMessage)
	require.True(t, ok)
	assert.Equal(t, block, payload.Block)
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	var c Codec

	_, err := c.Marshal(struct{}{})
	assert.Error(t, err)

	err = c.Unmarshal(nil, &struct{}{})
	assert.Error(t, err)

	assert.Equal(t, "proto", c.Name())
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "getBlock", KindGetBlock.String())
	assert.Equal(t, "utxosChangedNotification", KindUtxosChangedNotification.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
