package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pizzaria_backend/model"
	"pizzaria_backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryFeed struct {
	out chan []byte
}

func newMemoryFeed() *memoryFeed {
	return &memoryFeed{out: make(chan []byte, 8)}
}

func (f *memoryFeed) Messages() <-chan []byte { return f.out }

func (f *memoryFeed) Close() error {
	close(f.out)
	return nil
}

// fakeConn registra o que o hub escreveu; failAfter >= 0 simula a conexão
// morrendo depois de N escritas.
type fakeConn struct {
	written   [][]byte
	failAfter int
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.failAfter >= 0 && len(c.written) >= c.failAfter {
		return errors.New("conexão fechada")
	}
	c.written = append(c.written, data)
	return nil
}

func snapshotPayload(t *testing.T, status model.OrderStatus) []byte {
	t.Helper()
	payload, err := json.Marshal(store.Snapshot{
		Type:    "order",
		Version: 3,
		Order:   &model.Order{PublicCode: "PED-SYNC01", Status: status},
	})
	require.NoError(t, err)
	return payload
}

func TestForwardRewritesDeletedOnAdminChannel(t *testing.T) {
	h := NewHub(nil, nil, zap.NewNop().Sugar())
	conn := &fakeConn{failAfter: -1}
	h.join(store.ChannelAllOrders, conn)

	feed := newMemoryFeed()
	feed.out <- snapshotPayload(t, model.StatusDeleted)
	feed.out <- snapshotPayload(t, model.StatusPending)
	feed.Close()

	h.forward(context.Background(), store.ChannelAllOrders, feed, conn)

	require.Len(t, conn.written, 2)

	var removed store.Snapshot
	require.NoError(t, json.Unmarshal(conn.written[0], &removed))
	assert.Equal(t, "order_removed", removed.Type)
	assert.Equal(t, uint(3), removed.Version)

	var normal store.Snapshot
	require.NoError(t, json.Unmarshal(conn.written[1], &normal))
	assert.Equal(t, "order", normal.Type)
}

func TestForwardKeepsDeletedOnOrderChannel(t *testing.T) {
	h := NewHub(nil, nil, zap.NewNop().Sugar())
	conn := &fakeConn{failAfter: -1}
	room := store.ChannelForOrder("PED-SYNC01")
	h.join(room, conn)

	feed := newMemoryFeed()
	feed.out <- snapshotPayload(t, model.StatusDeleted)
	feed.Close()

	h.forward(context.Background(), room, feed, conn)

	require.Len(t, conn.written, 1)
	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(conn.written[0], &snap))
	assert.Equal(t, "order", snap.Type, "o cliente do pedido ainda recebe o snapshot da lixeira")
}

func TestForwardEvictsOnWriteError(t *testing.T) {
	h := NewHub(nil, nil, zap.NewNop().Sugar())
	conn := &fakeConn{failAfter: 1}
	room := store.ChannelForOrder("PED-SYNC02")
	h.join(room, conn)

	feed := newMemoryFeed()
	feed.out <- snapshotPayload(t, model.StatusPending)
	feed.out <- snapshotPayload(t, model.StatusAccepted)
	feed.out <- snapshotPayload(t, model.StatusReady)
	feed.Close()

	h.forward(context.Background(), room, feed, conn)

	assert.Len(t, conn.written, 1, "para de escrever depois do primeiro erro")
}

func TestForwardStopsAfterLeave(t *testing.T) {
	h := NewHub(nil, nil, zap.NewNop().Sugar())
	conn := &fakeConn{failAfter: -1}
	room := store.ChannelForOrder("PED-SYNC03")
	h.join(room, conn)
	h.leave(room, conn)

	feed := newMemoryFeed()
	feed.out <- snapshotPayload(t, model.StatusPending)
	feed.Close()

	h.forward(context.Background(), room, feed, conn)

	assert.Empty(t, conn.written)
}
