package handler

import (
	"context"
	"encoding/json"
	"sync"

	"pizzaria_backend/model"
	"pizzaria_backend/store"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// snapshotWriter é o que o fan-out precisa de uma conexão. O *websocket.Conn
// satisfaz; os testes injetam uma conexão falsa.
type snapshotWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Hub entrega toda mutação do store aos assinantes ao vivo: sessões do admin
// (todos os pedidos ativos) e a sessão do cliente (um pedido). Cada emissão é
// o snapshot completo; assinante atrasado converge sem replay. Entrega
// at-least-once e o campo version permite ao cliente descartar estado otimista
// superado (versão maior vence, sem merge campo a campo).
type Hub struct {
	Store *store.OrderStore
	Bus   store.SnapshotBus
	Log   *zap.SugaredLogger

	mu    sync.Mutex
	rooms map[string]map[snapshotWriter]bool
}

func NewHub(s *store.OrderStore, bus store.SnapshotBus, log *zap.SugaredLogger) *Hub {
	return &Hub{
		Store: s,
		Bus:   bus,
		Log:   log,
		rooms: make(map[string]map[snapshotWriter]bool),
	}
}

func (h *Hub) join(room string, w snapshotWriter) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[snapshotWriter]bool)
	}
	h.rooms[room][w] = true
	h.mu.Unlock()
}

func (h *Hub) leave(room string, w snapshotWriter) {
	h.mu.Lock()
	if h.rooms[room] != nil {
		delete(h.rooms[room], w)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// OrderSocket: conexão do cliente acompanhando um único pedido.
func (h *Hub) OrderSocket(c *websocket.Conn) {
	publicCode := c.Params("publicCode")
	room := store.ChannelForOrder(publicCode)

	h.join(room, c)
	defer func() {
		h.leave(room, c)
		c.Close()
	}()

	// snapshot inicial: quem chega atrasado converge na hora
	if order, err := h.Store.GetByCode(context.Background(), publicCode); err == nil {
		c.WriteJSON(store.Snapshot{Type: "order", Version: order.Version, Order: order})
	}

	h.pump(room, c)
}

// AdminSocket: console da cozinha/admin acompanhando todos os pedidos ativos.
func (h *Hub) AdminSocket(c *websocket.Conn) {
	room := store.ChannelAllOrders

	h.join(room, c)
	defer func() {
		h.leave(room, c)
		c.Close()
	}()

	if orders, err := h.Store.ListActive(context.Background()); err == nil {
		c.WriteJSON(map[string]any{"type": "orders", "orders": orders})
	}

	h.pump(room, c)
}

// pump assina o feed da sala e mantém a conexão alimentada até o websocket
// fechar do outro lado.
func (h *Hub) pump(room string, c *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := h.Bus.Subscribe(ctx, room)
	defer feed.Close()

	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	h.forward(ctx, room, feed, c)
}

// forward repassa cada snapshot do feed à conexão. Conexão com erro de escrita
// é removida, como no resto do fan-out.
func (h *Hub) forward(ctx context.Context, room string, feed store.SnapshotFeed, w snapshotWriter) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-feed.Messages():
			if !ok {
				return
			}

			// na lixeira some da visão do admin; o snapshot ainda é entregue
			// para o cliente do pedido
			if room == store.ChannelAllOrders {
				payload = rewriteRemoved(payload)
			}

			h.mu.Lock()
			alive := h.rooms[room][w]
			h.mu.Unlock()
			if !alive {
				return
			}

			if err := w.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.Log.Debugw("conexão websocket removida", "sala", room, "err", err)
				return
			}
		}
	}
}

// rewriteRemoved troca o tipo do snapshot de um pedido na lixeira para que o
// console admin o retire da lista.
func rewriteRemoved(payload []byte) []byte {
	var snap store.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil || snap.Order == nil ||
		snap.Order.Status != model.StatusDeleted {
		return payload
	}
	snap.Type = "order_removed"
	out, err := json.Marshal(snap)
	if err != nil {
		return payload
	}
	return out
}
