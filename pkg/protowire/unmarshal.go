package protowire

import (
	"math"

	wire "google.golang.org/protobuf/encoding/protowire"
)

// forEachField walks the top-level fields of a protobuf message body.
// The callback returns the number of bytes it consumed, or -1 to have the
// field skipped as unknown.
func forEachField(data []byte, fn func(num wire.Number, typ wire.Type, field []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := wire.ConsumeTag(data)
		if n < 0 {
			return ErrTruncatedMessage
		}
		data = data[n:]

		consumed, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if consumed < 0 {
			consumed = wire.ConsumeFieldValue(num, typ, data)
			if consumed < 0 {
				return ErrTruncatedMessage
			}
		}
		data = data[consumed:]
	}
	return nil
}

func consumeString(field []byte, dst *string) (int, error) {
	s, n := wire.ConsumeString(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = s
	return n, nil
}

func consumeStrings(field []byte, dst *[]string) (int, error) {
	s, n := wire.ConsumeString(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = append(*dst, s)
	return n, nil
}

func consumeUint64(field []byte, dst *uint64) (int, error) {
	v, n := wire.ConsumeVarint(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = v
	return n, nil
}

func consumeUint32(field []byte, dst *uint32) (int, error) {
	v, n := wire.ConsumeVarint(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = uint32(v)
	return n, nil
}

func consumeInt64(field []byte, dst *int64) (int, error) {
	v, n := wire.ConsumeVarint(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = int64(v)
	return n, nil
}

func consumeBool(field []byte, dst *bool) (int, error) {
	v, n := wire.ConsumeVarint(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = v != 0
	return n, nil
}

func consumeDouble(field []byte, dst *float64) (int, error) {
	v, n := wire.ConsumeFixed64(field)
	if n < 0 {
		return 0, ErrTruncatedMessage
	}
	*dst = math.Float64frombits(v)
	return n, nil
}

func consumeBytes(field []byte) ([]byte, int, error) {
	b, n := wire.ConsumeBytes(field)
	if n < 0 {
		return nil, 0, ErrTruncatedMessage
	}
	return b, n, nil
}

func unmarshalRequestPayload(num wire.Number, body []byte) (RequestPayload, error) {
	switch num {
	case fieldGetBlock:
		return unmarshalGetBlockRequest(body)
	case fieldSubmitTransaction:
		return unmarshalSubmitTransactionRequest(body)
	case fieldGetBlockDagInfo:
		return &GetBlockDagInfoRequestMessage{}, nil
	case fieldGetUtxosByAddresses:
		return unmarshalGetUtxosByAddressesRequest(body)
	case fieldNotifyUtxosChanged:
		return unmarshalNotifyUtxosChangedRequest(body)
	default:
		return nil, nil
	}
}

func unmarshalResponsePayload(num wire.Number, body []byte) (ResponsePayload, error) {
	switch num {
	case fieldGetBlock:
		return unmarshalGetBlockResponse(body)
	case fieldSubmitTransaction:
		return unmarshalSubmitTransactionResponse(body)
	case fieldGetBlockDagInfo:
		return unmarshalGetBlockDagInfoResponse(body)
	case fieldGetUtxosByAddresses:
		return unmarshalGetUtxosByAddressesResponse(body)
	case fieldNotifyUtxosChanged:
		return unmarshalNotifyUtxosChangedResponse(body)
	case fieldUtxosChangedNotified:
		return unmarshalUtxosChangedNotification(body)
	default:
		return nil, nil
	}
}

func unmarshalGetBlockRequest(data []byte) (*GetBlockRequestMessage, error) {
	m := &GetBlockRequestMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.Hash)
		case 2:
			return consumeBool(field, &m.IncludeTransactions)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalSubmitTransactionRequest(data []byte) (*SubmitTransactionRequestMessage, error) {
	m := &SubmitTransactionRequestMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			tx, err := unmarshalTransaction(body)
			if err != nil {
				return 0, err
			}
			m.Transaction = tx
			return n, nil
		case 2:
			return consumeBool(field, &m.AllowOrphan)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalGetUtxosByAddressesRequest(data []byte) (*GetUtxosByAddressesRequestMessage, error) {
	m := &GetUtxosByAddressesRequestMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		if num == 1 {
			return consumeStrings(field, &m.Addresses)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalNotifyUtxosChangedRequest(data []byte) (*NotifyUtxosChangedRequestMessage, error) {
	m := &NotifyUtxosChangedRequestMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			var v uint64
			n, err := consumeUint64(field, &v)
			m.Command = NotifyCommand(v)
			return n, err
		case 2:
			return consumeStrings(field, &m.Addresses)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalRPCError(data []byte) (*RPCError, error) {
	m := &RPCError{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		if num == 1 {
			return consumeString(field, &m.Message)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalGetBlockResponse(data []byte) (*GetBlockResponseMessage, error) {
	m := &GetBlockResponseMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			block, err := unmarshalBlock(body)
			if err != nil {
				return 0, err
			}
			m.Block = block
			return n, nil
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			rpcErr, err := unmarshalRPCError(body)
			if err != nil {
				return 0, err
			}
			m.Error = rpcErr
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalSubmitTransactionResponse(data []byte) (*SubmitTransactionResponseMessage, error) {
	m := &SubmitTransactionResponseMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.TransactionID)
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			rpcErr, err := unmarshalRPCError(body)
			if err != nil {
				return 0, err
			}
			m.Error = rpcErr
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalGetBlockDagInfoResponse(data []byte) (*GetBlockDagInfoResponseMessage, error) {
	m := &GetBlockDagInfoResponseMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeStrings(field, &m.TipHashes)
		case 2:
			return consumeUint64(field, &m.BlockCount)
		case 3:
			return consumeUint64(field, &m.HeaderCount)
		case 4:
			return consumeDouble(field, &m.Difficulty)
		case 5:
			return consumeInt64(field, &m.PastMedianTime)
		case 6:
			return consumeStrings(field, &m.VirtualParentHashes)
		case 7:
			return consumeString(field, &m.PruningPointHash)
		case 8:
			return consumeUint64(field, &m.VirtualDaaScore)
		case 9:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			rpcErr, err := unmarshalRPCError(body)
			if err != nil {
				return 0, err
			}
			m.Error = rpcErr
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalGetUtxosByAddressesResponse(data []byte) (*GetUtxosByAddressesResponseMessage, error) {
	m := &GetUtxosByAddressesResponseMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			entry, err := unmarshalUtxosByAddressesEntry(body)
			if err != nil {
				return 0, err
			}
			m.Entries = append(m.Entries, entry)
			return n, nil
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			rpcErr, err := unmarshalRPCError(body)
			if err != nil {
				return 0, err
			}
			m.Error = rpcErr
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalNotifyUtxosChangedResponse(data []byte) (*NotifyUtxosChangedResponseMessage, error) {
	m := &NotifyUtxosChangedResponseMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		if num == 1 {
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			rpcErr, err := unmarshalRPCError(body)
			if err != nil {
				return 0, err
			}
			m.Error = rpcErr
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalUtxosChangedNotification(data []byte) (*UtxosChangedNotificationMessage, error) {
	m := &UtxosChangedNotificationMessage{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1, 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			entry, err := unmarshalUtxosByAddressesEntry(body)
			if err != nil {
				return 0, err
			}
			if num == 1 {
				m.Added = append(m.Added, entry)
			} else {
				m.Removed = append(m.Removed, entry)
			}
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalUtxosByAddressesEntry(data []byte) (*UtxosByAddressesEntry, error) {
	m := &UtxosByAddressesEntry{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.Address)
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			outpoint, err := unmarshalOutpoint(body)
			if err != nil {
				return 0, err
			}
			m.Outpoint = outpoint
			return n, nil
		case 3:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			entry, err := unmarshalUtxoEntry(body)
			if err != nil {
				return 0, err
			}
			m.UtxoEntry = entry
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalOutpoint(data []byte) (*RpcOutpoint, error) {
	m := &RpcOutpoint{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.TransactionID)
		case 2:
			return consumeUint32(field, &m.Index)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalScriptPublicKey(data []byte) (*RpcScriptPublicKey, error) {
	m := &RpcScriptPublicKey{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(field, &m.Version)
		case 2:
			return consumeString(field, &m.Script)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalUtxoEntry(data []byte) (*RpcUtxoEntry, error) {
	m := &RpcUtxoEntry{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint64(field, &m.Amount)
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			spk, err := unmarshalScriptPublicKey(body)
			if err != nil {
				return 0, err
			}
			m.ScriptPublicKey = spk
			return n, nil
		case 3:
			return consumeUint64(field, &m.BlockDaaScore)
		case 4:
			return consumeBool(field, &m.IsCoinbase)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalBlock(data []byte) (*RpcBlock, error) {
	m := &RpcBlock{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			header, err := unmarshalBlockHeader(body)
			if err != nil {
				return 0, err
			}
			m.Header = header
			return n, nil
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			tx, err := unmarshalTransaction(body)
			if err != nil {
				return 0, err
			}
			m.Transactions = append(m.Transactions, tx)
			return n, nil
		case 3:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			vd, err := unmarshalBlockVerboseData(body)
			if err != nil {
				return 0, err
			}
			m.VerboseData = vd
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalBlockHeader(data []byte) (*RpcBlockHeader, error) {
	m := &RpcBlockHeader{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(field, &m.Version)
		case 2:
			return consumeString(field, &m.HashMerkleRoot)
		case 3:
			return consumeString(field, &m.AcceptedIDMerkleRoot)
		case 4:
			return consumeString(field, &m.UtxoCommitment)
		case 5:
			return consumeInt64(field, &m.Timestamp)
		case 6:
			return consumeUint32(field, &m.Bits)
		case 7:
			return consumeUint64(field, &m.Nonce)
		case 8:
			return consumeUint64(field, &m.DaaScore)
		case 9:
			return consumeString(field, &m.BlueWork)
		case 10:
			return consumeUint64(field, &m.BlueScore)
		case 11:
			return consumeString(field, &m.PruningPoint)
		case 12:
			return consumeString(field, &m.Hash)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalBlockVerboseData(data []byte) (*RpcBlockVerboseData, error) {
	m := &RpcBlockVerboseData{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.Hash)
		case 2:
			return consumeDouble(field, &m.Difficulty)
		case 3:
			return consumeString(field, &m.SelectedParentHash)
		case 4:
			return consumeStrings(field, &m.TransactionIDs)
		case 5:
			return consumeBool(field, &m.IsHeaderOnly)
		case 6:
			return consumeUint64(field, &m.BlueScore)
		case 7:
			return consumeBool(field, &m.IsChainBlock)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalTransaction(data []byte) (*RpcTransaction, error) {
	m := &RpcTransaction{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(field, &m.Version)
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			in, err := unmarshalTransactionInput(body)
			if err != nil {
				return 0, err
			}
			m.Inputs = append(m.Inputs, in)
			return n, nil
		case 3:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			out, err := unmarshalTransactionOutput(body)
			if err != nil {
				return 0, err
			}
			m.Outputs = append(m.Outputs, out)
			return n, nil
		case 4:
			return consumeUint64(field, &m.LockTime)
		case 5:
			return consumeString(field, &m.SubnetworkID)
		case 6:
			return consumeUint64(field, &m.Gas)
		case 7:
			return consumeString(field, &m.Payload)
		case 8:
			return consumeUint64(field, &m.Mass)
		case 9:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			vd, err := unmarshalTransactionVerboseData(body)
			if err != nil {
				return 0, err
			}
			m.VerboseData = vd
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalTransactionInput(data []byte) (*RpcTransactionInput, error) {
	m := &RpcTransactionInput{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			outpoint, err := unmarshalOutpoint(body)
			if err != nil {
				return 0, err
			}
			m.PreviousOutpoint = outpoint
			return n, nil
		case 2:
			return consumeString(field, &m.SignatureScript)
		case 3:
			return consumeUint64(field, &m.Sequence)
		case 4:
			return consumeUint32(field, &m.SigOpCount)
		}
		return -1, nil
	})
	return m, err
}

func unmarshalTransactionOutput(data []byte) (*RpcTransactionOutput, error) {
	m := &RpcTransactionOutput{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint64(field, &m.Amount)
		case 2:
			body, n, err := consumeBytes(field)
			if err != nil {
				return 0, err
			}
			spk, err := unmarshalScriptPublicKey(body)
			if err != nil {
				return 0, err
			}
			m.ScriptPublicKey = spk
			return n, nil
		}
		return -1, nil
	})
	return m, err
}

func unmarshalTransactionVerboseData(data []byte) (*RpcTransactionVerboseData, error) {
	m := &RpcTransactionVerboseData{}
	err := forEachField(data, func(num wire.Number, typ wire.Type, field []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(field, &m.TransactionID)
		case 2:
			return consumeString(field, &m.Hash)
		case 3:
			return consumeUint64(field, &m.Mass)
		}
		return -1, nil
	})
	return m, err
}
