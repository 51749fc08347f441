package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultPrefix = "tokenwallet"

// Transport publishes change notices on one Redis channel per topic,
// named <prefix>:<topic>.
type Transport struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

var _ ports.ChangeTransport = (*Transport)(nil)

func NewTransport(client *goredis.Client, prefix string, logger *slog.Logger) *Transport {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{client: client, prefix: prefix, logger: logger}
}

// Dial builds a client for addr and checks that the server answers.
func Dial(ctx context.Context, addr, prefix string, logger *slog.Logger) (*Transport, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewTransport(client, prefix, logger), nil
}

func (t *Transport) Close() error {
	return t.client.Close()
}

func (t *Transport) Channel(topic domain.Topic) string {
	return t.prefix + ":" + string(topic)
}

func (t *Transport) Notify(ctx context.Context, notice domain.ChangeNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode change notice: %w", err)
	}
	if err := t.client.Publish(ctx, t.Channel(notice.Topic), payload).Err(); err != nil {
		return fmt.Errorf("publish change notice: %w", err)
	}
	return nil
}

func (t *Transport) Listen(ctx context.Context, fn func(domain.ChangeNotice)) (func(), error) {
	channels := make([]string, 0, len(domain.Topics()))
	for _, topic := range domain.Topics() {
		channels = append(channels, t.Channel(topic))
	}

	pubsub := t.client.Subscribe(ctx, channels...)
	// Wait for the subscription so notices published after Listen returns
	// are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe change notices: %w", err)
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = pubsub.Close()
			<-done
		})
	}

	messages := pubsub.Channel()
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				notice, err := t.decode(msg.Channel, msg.Payload)
				if err != nil {
					t.logger.Warn("drop change notice", slog.String("channel", msg.Channel), slog.Any("error", err))
					continue
				}
				fn(notice)
			}
		}
	}()

	return stop, nil
}

// decode trusts the channel over the payload for the topic.
func (t *Transport) decode(channel, payload string) (domain.ChangeNotice, error) {
	var notice domain.ChangeNotice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		return domain.ChangeNotice{}, fmt.Errorf("decode change notice: %w", err)
	}

	topic := domain.Topic(strings.TrimPrefix(channel, t.prefix+":"))
	if !topic.Valid() {
		return domain.ChangeNotice{}, fmt.Errorf("unknown topic channel %q", channel)
	}
	notice.Topic = topic
	return notice, nil
}
