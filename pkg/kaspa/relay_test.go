package kaspa

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

func TestSubscribeSendsStartCommand(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa", "kaspa:qqb"})
	require.NoError(t, err)
	defer sub.Close()

	require.Equal(t, 1, ch.opened())
	stream := ch.streams[0]
	require.Len(t, stream.sent, 1)

	req, ok := stream.sent[0].Payload.(*protowire.NotifyUtxosChangedRequestMessage)
	require.True(t, ok)
	assert.Equal(t, protowire.NotifyCommandStart, req.Command)
	assert.Equal(t, []string{"kaspa:qqa", "kaspa:qqb"}, req.Addresses)
	assert.NotZero(t, stream.sent[0].ID)
}

func TestSubscribeRequiresAddresses(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	_, err := client.SubscribeUtxoChanges(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, ch.opened(), "validation failures must not open a stream")
}

func TestRecvSkipsAckAndUnrelatedVariants(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.NoError(t, err)
	defer sub.Close()

	stream := ch.streams[0]
	stream.queue(&protowire.KaspadResponse{Payload: &protowire.NotifyUtxosChangedResponseMessage{}})
	stream.queue(&protowire.KaspadResponse{Payload: &protowire.GetBlockDagInfoResponseMessage{}})
	stream.queue(&protowire.KaspadResponse{Payload: nil})
	stream.queue(&protowire.KaspadResponse{Payload: &protowire.UtxosChangedNotificationMessage{
		Added: []*protowire.UtxosByAddressesEntry{{Address: "kaspa:qqa"}},
	}})

	note, err := sub.Recv()
	require.NoError(t, err)
	require.Len(t, note.Added, 1)
	assert.Equal(t, "kaspa:qqa", note.Added[0].Address)
}

func TestRecvSurfacesRefusedSubscription(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.NoError(t, err)
	defer sub.Close()

	ch.streams[0].queue(&protowire.KaspadResponse{Payload: &protowire.NotifyUtxosChangedResponseMessage{
		Error: &protowire.RPCError{Message: "too many subscriptions"},
	}})

	_, err = sub.Recv()
	require.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "too many subscriptions")
}

func TestRecvReturnsEOFOnCleanEnd(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.NoError(t, err)

	ch.streams[0].Close()

	_, err = sub.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecvClassifiesStreamBreakage(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.NoError(t, err)

	stream := ch.streams[0]
	stream.recvErr = io.ErrUnexpectedEOF
	stream.Close()

	_, err = sub.Recv()
	assert.ErrorIs(t, err, ErrConnection)
}

func TestCloseUnblocksRecv(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	sub, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Recv()
		done <- err
	}()

	// Give Recv a moment to block before tearing down.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}

func TestSendFailureOnSubscribeClosesStream(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.sendErr = io.ErrClosedPipe
	}}
	client := newTestClient(ch)

	_, err := client.SubscribeUtxoChanges(context.Background(), []string{"kaspa:qqa"})
	require.ErrorIs(t, err, ErrConnection)
	assert.True(t, ch.streams[0].isClosed())
}
