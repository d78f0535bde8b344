package protowire

// Kind identifies the payload variant carried by an envelope. A unary
// request is answered by a payload of the same kind; anything else is a
// protocol violation.
type Kind int

const (
	// KindUnknown marks an envelope whose payload variant was not
	// recognized.
	KindUnknown Kind = iota
	// KindGetBlock is a block-by-hash lookup.
	KindGetBlock
	// KindSubmitTransaction submits a transaction to the network.
	KindSubmitTransaction
	// KindGetBlockDagInfo queries the DAG tips and counters.
	KindGetBlockDagInfo
	// KindGetUtxosByAddresses lists UTXOs for a set of addresses.
	KindGetUtxosByAddresses
	// KindNotifyUtxosChanged registers a UTXO change subscription.
	KindNotifyUtxosChanged
	// KindUtxosChangedNotification is a server push describing added and
	// removed UTXOs for watched addresses.
	KindUtxosChangedNotification
)

// String returns the protocol name of the payload kind.
func (k Kind) String() string {
	switch k {
	case KindGetBlock:
		return "getBlock"
	case KindSubmitTransaction:
		return "submitTransaction"
	case KindGetBlockDagInfo:
		return "getBlockDagInfo"
	case KindGetUtxosByAddresses:
		return "getUtxosByAddresses"
	case KindNotifyUtxosChanged:
		return "notifyUtxosChanged"
	case KindUtxosChangedNotification:
		return "utxosChangedNotification"
	default:
		return "unknown"
	}
}

// RequestPayload is implemented by every request payload variant.
type RequestPayload interface {
	Kind() Kind
	marshalRequestPayload([]byte) ([]byte, error)
}

// ResponsePayload is implemented by every response payload variant.
// RPCError returns the node-reported domain error, or nil.
type ResponsePayload interface {
	Kind() Kind
	RPCError() *RPCError
	marshalResponsePayload([]byte) ([]byte, error)
}

// RPCError is a domain-level error reported by the node inside a response
// payload. It means the node understood the request and rejected it, as
// opposed to a transport failure.
type RPCError struct {
	Message string
}

func (e *RPCError) Error() string {
	return e.Message
}

// GetBlockRequestMessage requests a single block by hash.
type GetBlockRequestMessage struct {
	Hash                string
	IncludeTransactions bool
}

func (*GetBlockRequestMessage) Kind() Kind { return KindGetBlock }

// GetBlockResponseMessage carries the requested block, or an error.
type GetBlockResponseMessage struct {
	Block *RpcBlock
	Error *RPCError
}

func (*GetBlockResponseMessage) Kind() Kind          { return KindGetBlock }
func (m *GetBlockResponseMessage) RPCError() *RPCError { return m.Error }

// SubmitTransactionRequestMessage submits a transaction to the network.
type SubmitTransactionRequestMessage struct {
	Transaction *RpcTransaction
	AllowOrphan bool
}

func (*SubmitTransactionRequestMessage) Kind() Kind { return KindSubmitTransaction }

// SubmitTransactionResponseMessage carries the accepted transaction ID, or
// an error.
type SubmitTransactionResponseMessage struct {
	TransactionID string
	Error         *RPCError
}

func (*SubmitTransactionResponseMessage) Kind() Kind            { return KindSubmitTransaction }
func (m *SubmitTransactionResponseMessage) RPCError() *RPCError { return m.Error }

// GetBlockDagInfoRequestMessage queries general DAG information. It has no
// fields.
type GetBlockDagInfoRequestMessage struct{}

func (*GetBlockDagInfoRequestMessage) Kind() Kind { return KindGetBlockDagInfo }

// GetBlockDagInfoResponseMessage describes the current DAG state.
type GetBlockDagInfoResponseMessage struct {
	TipHashes           []string
	BlockCount          uint64
	HeaderCount         uint64
	Difficulty          float64
	PastMedianTime      int64
	VirtualParentHashes []string
	PruningPointHash    string
	VirtualDaaScore     uint64
	Error               *RPCError
}

func (*GetBlockDagInfoResponseMessage) Kind() Kind            { return KindGetBlockDagInfo }
func (m *GetBlockDagInfoResponseMessage) RPCError() *RPCError { return m.Error }

// GetUtxosByAddressesRequestMessage lists UTXOs for the given addresses.
type GetUtxosByAddressesRequestMessage struct {
	Addresses []string
}

func (*GetUtxosByAddressesRequestMessage) Kind() Kind { return KindGetUtxosByAddresses }

// GetUtxosByAddressesResponseMessage carries the matching UTXO entries, or
// an error.
type GetUtxosByAddressesResponseMessage struct {
	Entries []*UtxosByAddressesEntry
	Error   *RPCError
}

func (*GetUtxosByAddressesResponseMessage) Kind() Kind            { return KindGetUtxosByAddresses }
func (m *GetUtxosByAddressesResponseMessage) RPCError() *RPCError { return m.Error }

// NotifyCommand selects whether a notify request starts or stops a
// subscription.
type NotifyCommand int32

const (
	// NotifyCommandStart begins delivering notifications on the stream.
	NotifyCommandStart NotifyCommand = 0
	// NotifyCommandStop ends delivery.
	NotifyCommandStop NotifyCommand = 1
)

// NotifyUtxosChangedRequestMessage subscribes the stream to UTXO change
// notifications for the given addresses.
type NotifyUtxosChangedRequestMessage struct {
	Command   NotifyCommand
	Addresses []string
}

func (*NotifyUtxosChangedRequestMessage) Kind() Kind { return KindNotifyUtxosChanged }

// NotifyUtxosChangedResponseMessage acknowledges a subscription request.
type NotifyUtxosChangedResponseMessage struct {
	Error *RPCError
}

func (*NotifyUtxosChangedResponseMessage) Kind() Kind            { return KindNotifyUtxosChanged }
func (m *NotifyUtxosChangedResponseMessage) RPCError() *RPCError { return m.Error }

// UtxosChangedNotificationMessage is pushed by the node whenever UTXOs of a
// watched address are added or removed.
type UtxosChangedNotificationMessage struct {
	Added   []*UtxosByAddressesEntry
	Removed []*UtxosByAddressesEntry
}

func (*UtxosChangedNotificationMessage) Kind() Kind          { return KindUtxosChangedNotification }
func (*UtxosChangedNotificationMessage) RPCError() *RPCError { return nil }

// UtxosByAddressesEntry associates an address with one UTXO. Outpoint and
// UtxoEntry are optional on the wire; removed entries typically carry only
// the outpoint.
type UtxosByAddressesEntry struct {
	Address   string
	Outpoint  *RpcOutpoint
	UtxoEntry *RpcUtxoEntry
}

// RpcOutpoint references a transaction output.
type RpcOutpoint struct {
	TransactionID string
	Index         uint32
}

// RpcUtxoEntry describes an unspent output.
type RpcUtxoEntry struct {
	Amount          uint64
	ScriptPublicKey *RpcScriptPublicKey
	BlockDaaScore   uint64
	IsCoinbase      bool
}

// RpcScriptPublicKey is a script paired with its version.
type RpcScriptPublicKey struct {
	Version uint32
	Script  string
}

// RpcBlock is a full block as returned by the node.
type RpcBlock struct {
	Header       *RpcBlockHeader
	Transactions []*RpcTransaction
	VerboseData  *RpcBlockVerboseData
}

// RpcBlockHeader is the consensus header of a block.
type RpcBlockHeader struct {
	Version              uint32
	HashMerkleRoot       string
	AcceptedIDMerkleRoot string
	UtxoCommitment       string
	Timestamp            int64
	Bits                 uint32
	Nonce                uint64
	DaaScore             uint64
	BlueWork             string
	BlueScore            uint64
	PruningPoint         string
	Hash                 string
}

// RpcBlockVerboseData carries the node's derived view of a block.
type RpcBlockVerboseData struct {
	Hash               string
	Difficulty         float64
	SelectedParentHash string
	TransactionIDs     []string
	IsHeaderOnly       bool
	BlueScore          uint64
	IsChainBlock       bool
}

// RpcTransaction is a transaction in node wire form.
type RpcTransaction struct {
	Version      uint32
	Inputs       []*RpcTransactionInput
	Outputs      []*RpcTransactionOutput
	LockTime     uint64
	SubnetworkID string
	Gas          uint64
	Payload      string
	Mass         uint64
	VerboseData  *RpcTransactionVerboseData
}

// RpcTransactionInput spends a previous outpoint.
type RpcTransactionInput struct {
	PreviousOutpoint *RpcOutpoint
	SignatureScript  string
	Sequence         uint64
	SigOpCount       uint32
}

// RpcTransactionOutput creates a new spendable output.
type RpcTransactionOutput struct {
	Amount          uint64
	ScriptPublicKey *RpcScriptPublicKey
}

// RpcTransactionVerboseData carries derived transaction identifiers.
type RpcTransactionVerboseData struct {
	TransactionID string
	Hash          string
	Mass          uint64
}
