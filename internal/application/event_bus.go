package application

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
)

type EventName string

const (
	EventTokenCreated  EventName = "token-created"
	EventTokensCleared EventName = "tokens-cleared"
	EventLoginChanged  EventName = "login-changed"
)

// Handlers is one subscriber's set of callbacks. Nil callbacks are skipped.
type Handlers struct {
	OnTokenCreated  func(domain.Token)
	OnTokensCleared func()
	OnLoginChanged  func(*domain.User)
}

// Bus is a synchronous in-context publish/subscribe hub. Handlers run in
// registration order on the publishing goroutine; a panicking handler is
// logged and does not stop the others. Late subscribers get no replay.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	logger *slog.Logger
}

type subscription struct {
	id       uint64
	handlers Handlers
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers handlers and returns an idempotent unsubscribe func.
func (b *Bus) Subscribe(handlers Handlers) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handlers: handlers})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) PublishTokenCreated(token domain.Token) {
	for _, sub := range b.snapshot() {
		if sub.handlers.OnTokenCreated == nil {
			continue
		}
		b.invoke(EventTokenCreated, sub.id, func() { sub.handlers.OnTokenCreated(token) })
	}
}

func (b *Bus) PublishTokensCleared() {
	for _, sub := range b.snapshot() {
		if sub.handlers.OnTokensCleared == nil {
			continue
		}
		b.invoke(EventTokensCleared, sub.id, sub.handlers.OnTokensCleared)
	}
}

func (b *Bus) PublishLoginChanged(user *domain.User) {
	for _, sub := range b.snapshot() {
		if sub.handlers.OnLoginChanged == nil {
			continue
		}
		var payload *domain.User
		if user != nil {
			copied := *user
			payload = &copied
		}
		b.invoke(EventLoginChanged, sub.id, func() { sub.handlers.OnLoginChanged(payload) })
	}
}

// Subscribers returns the number of registered subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) snapshot() []subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]subscription(nil), b.subs...)
}

func (b *Bus) invoke(event EventName, id uint64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event", string(event)),
				slog.Uint64("subscription", id),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	fn()
}
