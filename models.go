package main

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

var blockHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// getValidator builds the request validator with the gateway's custom
// rules registered.
func getValidator() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("hash64", func(fl validator.FieldLevel) bool {
		return blockHashPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register hash64 validation: %v", err))
	}
	return validate
}

// APIResponse is the envelope every HTTP endpoint answers with.
type APIResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// GetBlockParams is the body of POST /rpc/getBlock. IncludeTransactions
// defaults to true when omitted.
type GetBlockParams struct {
	Hash                string `json:"hash" validate:"required,hash64"`
	IncludeTransactions *bool  `json:"includeTransactions"`
}

// SubmitTransactionParams is the body of POST /rpc/submitTransaction.
type SubmitTransactionParams struct {
	Transaction *TransactionJSON `json:"transaction" validate:"required"`
	AllowOrphan bool             `json:"allowOrphan"`
}

// GetUtxosByAddressesParams is the body of POST /rpc/getUtxosByAddresses.
type GetUtxosByAddressesParams struct {
	Addresses []string `json:"addresses" validate:"required,min=1,dive,required"`
}

// TransactionJSON mirrors the node's transaction in the JSON API.
type TransactionJSON struct {
	Version      uint32                   `json:"version"`
	Inputs       []*TransactionInputJSON  `json:"inputs"`
	Outputs      []*TransactionOutputJSON `json:"outputs"`
	LockTime     uint64                   `json:"lockTime"`
	SubnetworkID string                   `json:"subnetworkId"`
	Gas          uint64                   `json:"gas"`
	Payload      string                   `json:"payload"`
	Mass         uint64                   `json:"mass"`
}

// TransactionInputJSON is one spent outpoint in a submitted transaction.
type TransactionInputJSON struct {
	PreviousOutpoint *OutpointJSON `json:"previousOutpoint" validate:"required"`
	SignatureScript  string        `json:"signatureScript"`
	Sequence         uint64        `json:"sequence"`
	SigOpCount       uint32        `json:"sigOpCount"`
}

// TransactionOutputJSON is one created output in a submitted transaction.
type TransactionOutputJSON struct {
	Amount          uint64               `json:"amount"`
	ScriptPublicKey *ScriptPublicKeyJSON `json:"scriptPublicKey" validate:"required"`
}

// OutpointJSON references a transaction output.
type OutpointJSON struct {
	TransactionID string `json:"transactionId" validate:"required,hash64"`
	Index         uint32 `json:"index"`
}

// ScriptPublicKeyJSON is a script paired with its version.
type ScriptPublicKeyJSON struct {
	Version uint32 `json:"version"`
	Script  string `json:"script" validate:"required"`
}

// BlockJSON is the JSON rendering of a node block.
type BlockJSON struct {
	Header       *BlockHeaderJSON      `json:"header,omitempty"`
	Transactions []*TransactionJSON    `json:"transactions,omitempty"`
	VerboseData  *BlockVerboseDataJSON `json:"verboseData,omitempty"`
}

// BlockHeaderJSON is the JSON rendering of a block header.
type BlockHeaderJSON struct {
	Version        uint32 `json:"version"`
	HashMerkleRoot string `json:"hashMerkleRoot"`
	Timestamp      int64  `json:"timestamp"`
	Bits           uint32 `json:"bits"`
	Nonce          uint64 `json:"nonce"`
	DaaScore       uint64 `json:"daaScore"`
	BlueWork       string `json:"blueWork"`
	BlueScore      uint64 `json:"blueScore"`
	PruningPoint   string `json:"pruningPoint"`
	Hash           string `json:"hash"`
}

// BlockVerboseDataJSON carries the node's derived view of a block.
type BlockVerboseDataJSON struct {
	Hash               string   `json:"hash"`
	Difficulty         float64  `json:"difficulty"`
	SelectedParentHash string   `json:"selectedParentHash"`
	TransactionIDs     []string `json:"transactionIds,omitempty"`
	IsHeaderOnly       bool     `json:"isHeaderOnly"`
	BlueScore          uint64   `json:"blueScore"`
	IsChainBlock       bool     `json:"isChainBlock"`
}

// BlockDagInfoJSON is the response body of POST /rpc/getBlockDagInfo.
type BlockDagInfoJSON struct {
	TipHashes           []string `json:"tipHashes"`
	BlockCount          uint64   `json:"blockCount"`
	HeaderCount         uint64   `json:"headerCount"`
	Difficulty          float64  `json:"difficulty"`
	PastMedianTime      int64    `json:"pastMedianTime"`
	VirtualParentHashes []string `json:"virtualParentHashes"`
	PruningPointHash    string   `json:"pruningPointHash"`
	VirtualDaaScore     uint64   `json:"virtualDaaScore"`
}

// UtxoEntryJSON is one UTXO in an API response. Outpoint and UtxoEntry are
// pointers so fields the node omitted render as null rather than zeroes.
type UtxoEntryJSON struct {
	Address   string           `json:"address"`
	Outpoint  *OutpointJSON    `json:"outpoint"`
	UtxoEntry *UtxoDetailsJSON `json:"utxoEntry"`
}

// UtxoDetailsJSON describes an unspent output.
type UtxoDetailsJSON struct {
	Amount          uint64               `json:"amount"`
	ScriptPublicKey *ScriptPublicKeyJSON `json:"scriptPublicKey"`
	BlockDaaScore   uint64               `json:"blockDaaScore"`
	IsCoinbase      bool                 `json:"isCoinbase"`
}

// UtxoChangeEventJSON is one WebSocket push frame.
type UtxoChangeEventJSON struct {
	Type    string           `json:"type"`
	Added   []*UtxoEntryJSON `json:"added"`
	Removed []*UtxoEntryJSON `json:"removed"`
}

func transactionToWire(tx *TransactionJSON) *protowire.RpcTransaction {
	if tx == nil {
		return nil
	}
	out := &protowire.RpcTransaction{
		Version:      tx.Version,
		LockTime:     tx.LockTime,
		SubnetworkID: tx.SubnetworkID,
		Gas:          tx.Gas,
		Payload:      tx.Payload,
		Mass:         tx.Mass,
	}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, &protowire.RpcTransactionInput{
			PreviousOutpoint: outpointToWire(in.PreviousOutpoint),
			SignatureScript:  in.SignatureScript,
			Sequence:         in.Sequence,
			SigOpCount:       in.SigOpCount,
		})
	}
	for _, o := range tx.Outputs {
		out.Outputs = append(out.Outputs, &protowire.RpcTransactionOutput{
			Amount:          o.Amount,
			ScriptPublicKey: scriptPublicKeyToWire(o.ScriptPublicKey),
		})
	}
	return out
}

func outpointToWire(o *OutpointJSON) *protowire.RpcOutpoint {
	if o == nil {
		return nil
	}
	return &protowire.RpcOutpoint{TransactionID: o.TransactionID, Index: o.Index}
}

func scriptPublicKeyToWire(s *ScriptPublicKeyJSON) *protowire.RpcScriptPublicKey {
	if s == nil {
		return nil
	}
	return &protowire.RpcScriptPublicKey{Version: s.Version, Script: s.Script}
}

func blockFromWire(b *protowire.RpcBlock) *BlockJSON {
	if b == nil {
		return nil
	}
	out := &BlockJSON{}
	if h := b.Header; h != nil {
		out.Header = &BlockHeaderJSON{
			Version:        h.Version,
			HashMerkleRoot: h.HashMerkleRoot,
			Timestamp:      h.Timestamp,
			Bits:           h.Bits,
			Nonce:          h.Nonce,
			DaaScore:       h.DaaScore,
			BlueWork:       h.BlueWork,
			BlueScore:      h.BlueScore,
			PruningPoint:   h.PruningPoint,
			Hash:           h.Hash,
		}
	}
	for _, tx := range b.Transactions {
		out.Transactions = append(out.Transactions, transactionFromWire(tx))
	}
	if vd := b.VerboseData; vd != nil {
		out.VerboseData = &BlockVerboseDataJSON{
			Hash:               vd.Hash,
			Difficulty:         vd.Difficulty,
			SelectedParentHash: vd.SelectedParentHash,
			TransactionIDs:     vd.TransactionIDs,
			IsHeaderOnly:       vd.IsHeaderOnly,
			BlueScore:          vd.BlueScore,
			IsChainBlock:       vd.IsChainBlock,
		}
	}
	return out
}

func transactionFromWire(tx *protowire.RpcTransaction) *TransactionJSON {
	if tx == nil {
		return nil
	}
	out := &TransactionJSON{
		Version:      tx.Version,
		LockTime:     tx.LockTime,
		SubnetworkID: tx.SubnetworkID,
		Gas:          tx.Gas,
		Payload:      tx.Payload,
		Mass:         tx.Mass,
	}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, &TransactionInputJSON{
			PreviousOutpoint: outpointFromWire(in.PreviousOutpoint),
			SignatureScript:  in.SignatureScript,
			Sequence:         in.Sequence,
			SigOpCount:       in.SigOpCount,
		})
	}
	for _, o := range tx.Outputs {
		out.Outputs = append(out.Outputs, &TransactionOutputJSON{
			Amount:          o.Amount,
			ScriptPublicKey: scriptPublicKeyFromWire(o.ScriptPublicKey),
		})
	}
	return out
}

func outpointFromWire(o *protowire.RpcOutpoint) *OutpointJSON {
	if o == nil {
		return nil
	}
	return &OutpointJSON{TransactionID: o.TransactionID, Index: o.Index}
}

func scriptPublicKeyFromWire(s *protowire.RpcScriptPublicKey) *ScriptPublicKeyJSON {
	if s == nil {
		return nil
	}
	return &ScriptPublicKeyJSON{Version: s.Version, Script: s.Script}
}

func dagInfoFromWire(info *protowire.GetBlockDagInfoResponseMessage) *BlockDagInfoJSON {
	return &BlockDagInfoJSON{
		TipHashes:           info.TipHashes,
		BlockCount:          info.BlockCount,
		HeaderCount:         info.HeaderCount,
		Difficulty:          info.Difficulty,
		PastMedianTime:      info.PastMedianTime,
		VirtualParentHashes: info.VirtualParentHashes,
		PruningPointHash:    info.PruningPointHash,
		VirtualDaaScore:     info.VirtualDaaScore,
	}
}

// utxoEntriesFromWire keeps absent optional fields absent: entries the node
// sent without an outpoint or UTXO details render those as JSON null.
func utxoEntriesFromWire(entries []*protowire.UtxosByAddressesEntry) []*UtxoEntryJSON {
	out := make([]*UtxoEntryJSON, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		item := &UtxoEntryJSON{
			Address:  e.Address,
			Outpoint: outpointFromWire(e.Outpoint),
		}
		if u := e.UtxoEntry; u != nil {
			item.UtxoEntry = &UtxoDetailsJSON{
				Amount:          u.Amount,
				ScriptPublicKey: scriptPublicKeyFromWire(u.ScriptPublicKey),
				BlockDaaScore:   u.BlockDaaScore,
				IsCoinbase:      u.IsCoinbase,
			}
		}
		out = append(out, item)
	}
	return out
}
