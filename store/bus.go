package store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// SnapshotBus é a capacidade de empurrar e assinar snapshots de pedidos.
// Em produção o redis pubsub a satisfaz; nos testes um bus em memória
// alimenta o fan-out sem backend.
type SnapshotBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) SnapshotFeed
}

// SnapshotFeed é uma assinatura viva de um canal de snapshots.
type SnapshotFeed interface {
	Messages() <-chan []byte
	Close() error
}

// RedisBus adapta o cliente redis ao contrato do bus.
type RedisBus struct {
	RDB *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{RDB: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.RDB.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) SnapshotFeed {
	feed := &redisFeed{
		pubsub: b.RDB.Subscribe(ctx, channel),
		out:    make(chan []byte),
		done:   make(chan struct{}),
	}
	go feed.run()
	return feed
}

type redisFeed struct {
	pubsub    *redis.PubSub
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (f *redisFeed) run() {
	defer close(f.out)
	for {
		select {
		case <-f.done:
			return
		case msg, ok := <-f.pubsub.Channel():
			if !ok {
				return
			}
			select {
			case f.out <- []byte(msg.Payload):
			case <-f.done:
				return
			}
		}
	}
}

func (f *redisFeed) Messages() <-chan []byte {
	return f.out
}

func (f *redisFeed) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return f.pubsub.Close()
}
