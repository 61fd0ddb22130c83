package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "pixelcart:events"

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrapf(err, "failed to connect to Redis at %s", addr)
	}
	return client, nil
}

// RedisBus publishes every event on a single pub/sub channel so each
// server instance sees all of them.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *logrus.Logger
	ready   chan struct{}
}

func NewRedisBus(client *redis.Client, channel string, logger *logrus.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "marshal event")
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return eris.Wrapf(err, "publish %s on %s", e.Type, e.Topic)
	}
	return nil
}

// Ready is closed once Run holds an active subscription.
func (b *RedisBus) Ready() <-chan struct{} {
	return b.ready
}

func (b *RedisBus) Run(ctx context.Context, handle func(Event)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return eris.Wrapf(err, "subscribe %s", b.channel)
	}
	close(b.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.logger.WithError(err).Warn("dropping malformed event")
				continue
			}
			handle(e)
		}
	}
}
