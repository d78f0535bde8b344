package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

var wsWriteTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for simplicity
	},
}

// HandleSubscribeUtxoChanges serves GET /ws/subscribeUtxoChanges. The
// watched addresses are passed comma-separated in the addresses query
// parameter. Each connection owns one node subscription; closing either
// side tears down the other. This method blocks until the connection is
// closed.
func (g *Gateway) HandleSubscribeUtxoChanges(w http.ResponseWriter, r *http.Request) {
	addresses := splitAddresses(r.URL.Query().Get("addresses"))
	if len(addresses) == 0 {
		g.writeJSON(w, http.StatusBadRequest, APIResponse{
			Error: "at least one address is required",
		})
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	lg := g.logger.WithName("ws").WithKV("connectionID", connectionID)

	sub, err := g.node.SubscribeUtxoChanges(r.Context(), addresses)
	if err != nil {
		lg.Error("failed to subscribe", "error", err)
		writeWSError(conn, err)
		return
	}
	defer sub.Close()

	g.metrics.SubscriptionsTotal.Inc()
	g.metrics.ActiveSubscriptions.Inc()
	defer g.metrics.ActiveSubscriptions.Dec()
	lg.Info("subscription opened", "addresses", len(addresses))
	defer lg.Info("subscription closed")

	if err := writeWSMessage(conn, map[string]any{
		"status":    "subscribed",
		"addresses": addresses,
	}); err != nil {
		lg.Error("failed to confirm subscription", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	wg := &sync.WaitGroup{}
	wg.Add(2)
	abortOthers := func() {
		cancel()  // Trigger exit on the other goroutine
		wg.Done() // Decrement the wait group counter
	}

	go g.watchClient(conn, sub, abortOthers, lg)
	go g.relayNotifications(ctx, conn, sub, abortOthers, lg)

	wg.Wait()
}

// watchClient reads from the WebSocket until the client goes away, then
// tears the node subscription down so relayNotifications unblocks.
func (g *Gateway) watchClient(conn *websocket.Conn, sub UtxoSubscription, abortOthers func(), lg log.Logger) {
	defer abortOthers()
	defer sub.Close()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			lg.Debug("client connection ended", "error", err)
			return
		}
	}
}

// relayNotifications pulls notifications from the node subscription and
// pushes them to the client. Nothing is pulled while a write is in flight,
// so a slow client applies backpressure upstream.
func (g *Gateway) relayNotifications(ctx context.Context, conn *websocket.Conn, sub UtxoSubscription, abortOthers func(), lg log.Logger) {
	defer abortOthers()
	defer conn.Close()

	for {
		note, err := sub.Recv()
		if errors.Is(err, io.EOF) {
			lg.Debug("node ended the subscription")
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				lg.Error("subscription broke", "error", err)
				writeWSError(conn, err)
			}
			return
		}

		event := UtxoChangeEventJSON{
			Type:    "utxo_changed",
			Added:   utxoEntriesFromWire(note.Added),
			Removed: utxoEntriesFromWire(note.Removed),
		}
		if err := writeWSMessage(conn, event); err != nil {
			lg.Debug("failed to push notification", "error", err)
			return
		}
		g.metrics.NotificationsSent.Inc()
	}
}

func writeWSMessage(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func writeWSError(conn *websocket.Conn, err error) {
	_ = writeWSMessage(conn, map[string]string{
		"type":  "error",
		"error": err.Error(),
	})
}

func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
