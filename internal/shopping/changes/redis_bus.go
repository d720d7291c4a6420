// Package changes relays committed-write notifications between server
// replicas that share one database, so each replica's live queries refresh
// on writes made elsewhere.
package changes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"listsnap/internal/shopping/live"
)

const (
	DefaultChannel   = "listsnap:changes"
	DefaultQueueSize = 256
	publishTimeout   = 2 * time.Second
)

// Notifier receives table change notifications; *live.Hub satisfies it.
type Notifier interface {
	Notify(ctx context.Context, tables ...live.Table)
}

type message struct {
	Origin string   `json:"origin"`
	Tables []string `json:"tables"`
}

// RedisBus publishes local commits and replays remote ones into a Notifier.
type RedisBus struct {
	client   redis.UniversalClient
	notifier Notifier
	channel  string
	origin   string
	logger   *slog.Logger
	queue    chan []string
}

type Option func(*RedisBus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *RedisBus) {
		b.logger = logger
	}
}

func WithChannel(channel string) Option {
	return func(b *RedisBus) {
		b.channel = channel
	}
}

// WithQueueSize bounds the notifications waiting to be published.
func WithQueueSize(n int) Option {
	return func(b *RedisBus) {
		if n > 0 {
			b.queue = make(chan []string, n)
		}
	}
}

func NewRedisBus(client redis.UniversalClient, notifier Notifier, opts ...Option) *RedisBus {
	b := &RedisBus{
		client:   client,
		notifier: notifier,
		channel:  DefaultChannel,
		origin:   uuid.NewString(),
		logger:   slog.Default(),
		queue:    make(chan []string, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Origin identifies this process on the channel.
func (b *RedisBus) Origin() string {
	return b.origin
}

// Publish queues a local commit for announcement and never blocks. It has
// the store.CommitHook signature and runs under the store's writer lock.
// When the queue is full the notification is dropped; remote replicas then
// refresh on their next local write.
func (b *RedisBus) Publish(ctx context.Context, tables ...string) {
	if len(tables) == 0 {
		return
	}
	select {
	case b.queue <- append([]string(nil), tables...):
	default:
		b.logger.WarnContext(ctx, "change notification dropped, queue full", "tables", tables)
	}
}

// publishLoop sends queued notifications until ctx is cancelled.
func (b *RedisBus) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tables := <-b.queue:
			b.send(ctx, tables)
		}
	}
}

func (b *RedisBus) send(ctx context.Context, tables []string) {
	payload, err := json.Marshal(message{Origin: b.origin, Tables: tables})
	if err != nil {
		b.logger.ErrorContext(ctx, "encode change notification", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.WarnContext(ctx, "publish change notification", "tables", tables, "error", err)
	}
}

// Run publishes queued local commits, subscribes to the channel and
// forwards notifications from other origins until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	go b.publishLoop(ctx)

	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.InfoContext(ctx, "change bus subscribed", "channel", b.channel, "origin", b.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *RedisBus) handle(ctx context.Context, payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		b.logger.WarnContext(ctx, "discarding malformed change notification", "error", err)
		return
	}
	if m.Origin == b.origin || len(m.Tables) == 0 {
		return
	}
	b.notifier.Notify(ctx, m.Tables...)
}
