package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/kaspa"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

// UtxoSubscription is a live UTXO change subscription as consumed by the
// WebSocket handler.
type UtxoSubscription interface {
	Recv() (*protowire.UtxosChangedNotificationMessage, error)
	Close() error
}

// NodeClient is the subset of the node client the gateway uses.
type NodeClient interface {
	GetBlock(ctx context.Context, hash string, includeTransactions bool) (*protowire.GetBlockResponseMessage, error)
	SubmitTransaction(ctx context.Context, tx *protowire.RpcTransaction, allowOrphan bool) (*protowire.SubmitTransactionResponseMessage, error)
	GetBlockDagInfo(ctx context.Context) (*protowire.GetBlockDagInfoResponseMessage, error)
	GetUtxosByAddresses(ctx context.Context, addresses []string) (*protowire.GetUtxosByAddressesResponseMessage, error)
	SubscribeUtxoChanges(ctx context.Context, addresses []string) (UtxoSubscription, error)
}

// nodeClientAdapter narrows *kaspa.Client to the NodeClient interface.
type nodeClientAdapter struct {
	*kaspa.Client
}

func (a nodeClientAdapter) SubscribeUtxoChanges(ctx context.Context, addresses []string) (UtxoSubscription, error) {
	return a.Client.SubscribeUtxoChanges(ctx, addresses)
}

// Gateway serves the HTTP and WebSocket API in front of a kaspad node.
type Gateway struct {
	node     NodeClient
	validate *validator.Validate
	metrics  *Metrics
	logger   log.Logger
}

// NewGateway creates the API layer over the given node client.
func NewGateway(node NodeClient, metrics *Metrics, logger log.Logger) *Gateway {
	return &Gateway{
		node:     node,
		validate: getValidator(),
		metrics:  metrics,
		logger:   logger.WithName("gateway"),
	}
}

// RegisterRoutes mounts every API endpoint on the mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rpc/getBlock", g.HandleGetBlock)
	mux.HandleFunc("POST /rpc/submitTransaction", g.HandleSubmitTransaction)
	mux.HandleFunc("POST /rpc/getBlockDagInfo", g.HandleGetBlockDagInfo)
	mux.HandleFunc("POST /rpc/getUtxosByAddresses", g.HandleGetUtxosByAddresses)
	mux.HandleFunc("GET /health", g.HandleHealth)
	mux.HandleFunc("GET /ws/subscribeUtxoChanges", g.HandleSubscribeUtxoChanges)
}

// HandleGetBlock serves POST /rpc/getBlock.
func (g *Gateway) HandleGetBlock(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var params GetBlockParams
	if !g.decodeParams(w, r, start, &params) {
		return
	}

	includeTransactions := true
	if params.IncludeTransactions != nil {
		includeTransactions = *params.IncludeTransactions
	}

	resp, err := g.node.GetBlock(r.Context(), params.Hash, includeTransactions)
	g.countCall("getBlock", err)
	if err != nil {
		g.writeError(w, start, err)
		return
	}
	g.writeSuccess(w, start, blockFromWire(resp.Block))
}

// HandleSubmitTransaction serves POST /rpc/submitTransaction.
func (g *Gateway) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var params SubmitTransactionParams
	if !g.decodeParams(w, r, start, &params) {
		return
	}

	resp, err := g.node.SubmitTransaction(r.Context(), transactionToWire(params.Transaction), params.AllowOrphan)
	g.countCall("submitTransaction", err)
	if err != nil {
		g.writeError(w, start, err)
		return
	}
	g.writeSuccess(w, start, map[string]string{"transactionId": resp.TransactionID})
}

// HandleGetBlockDagInfo serves POST /rpc/getBlockDagInfo.
func (g *Gateway) HandleGetBlockDagInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp, err := g.node.GetBlockDagInfo(r.Context())
	g.countCall("getBlockDagInfo", err)
	if err != nil {
		g.writeError(w, start, err)
		return
	}
	g.writeSuccess(w, start, dagInfoFromWire(resp))
}

// HandleGetUtxosByAddresses serves POST /rpc/getUtxosByAddresses.
func (g *Gateway) HandleGetUtxosByAddresses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var params GetUtxosByAddressesParams
	if !g.decodeParams(w, r, start, &params) {
		return
	}

	resp, err := g.node.GetUtxosByAddresses(r.Context(), params.Addresses)
	g.countCall("getUtxosByAddresses", err)
	if err != nil {
		g.writeError(w, start, err)
		return
	}
	g.writeSuccess(w, start, map[string]any{"entries": utxoEntriesFromWire(resp.Entries)})
}

// HandleHealth serves GET /health. It probes the node with a lightweight
// call so a dead upstream surfaces here.
func (g *Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	_, err := g.node.GetBlockDagInfo(r.Context())
	if err != nil {
		g.writeError(w, start, err)
		return
	}
	g.writeSuccess(w, start, map[string]string{"status": "ok"})
}

// decodeParams parses and validates a JSON request body. On failure it
// writes the error response and returns false.
func (g *Gateway) decodeParams(w http.ResponseWriter, r *http.Request, start time.Time, params any) bool {
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		g.writeJSON(w, http.StatusBadRequest, APIResponse{
			Error:     "invalid request body",
			LatencyMs: time.Since(start).Milliseconds(),
		})
		return false
	}
	if err := g.validate.Struct(params); err != nil {
		g.logger.Debug("request validation failed", "error", err)
		g.writeJSON(w, http.StatusBadRequest, APIResponse{
			Error:     "request validation failed: " + err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		})
		return false
	}
	return true
}

func (g *Gateway) countCall(method string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.RPCRequests.WithLabelValues(method, status).Inc()
}

func (g *Gateway) writeSuccess(w http.ResponseWriter, start time.Time, data any) {
	g.writeJSON(w, http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

func (g *Gateway) writeError(w http.ResponseWriter, start time.Time, err error) {
	g.writeJSON(w, statusForError(err), APIResponse{
		Error:     err.Error(),
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("failed to write response", "error", err)
	}
}

// statusForError maps the client's error taxonomy onto HTTP status codes.
// A node that cannot be reached is a bad gateway; a node that rejected the
// request means the request itself was bad; a node that answered nonsense
// is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, kaspa.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, kaspa.ErrRemote):
		return http.StatusBadRequest
	case errors.Is(err, kaspa.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, kaspa.ErrEmptyResponse), errors.Is(err, kaspa.ErrProtocolMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
