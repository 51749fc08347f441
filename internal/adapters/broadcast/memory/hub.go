package memory

import (
	"context"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

const queueSize = 64

// Hub is an in-process ChangeTransport shared by several execution
// contexts. Every listener gets its own queue and goroutine, so Notify
// never runs a receiver on the caller's stack.
type Hub struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]*listener
}

type listener struct {
	queue chan domain.ChangeNotice
	done  chan struct{}
	once  sync.Once
}

var _ ports.ChangeTransport = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{listeners: map[int]*listener{}}
}

func (h *Hub) Notify(ctx context.Context, notice domain.ChangeNotice) error {
	h.mu.Lock()
	targets := make([]*listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		targets = append(targets, l)
	}
	h.mu.Unlock()

	for _, l := range targets {
		select {
		case l.queue <- notice:
		case <-l.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *Hub) Listen(ctx context.Context, fn func(domain.ChangeNotice)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := &listener{
		queue: make(chan domain.ChangeNotice, queueSize),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	h.mu.Unlock()

	stop := func() {
		l.once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
			close(l.done)
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case <-l.done:
				return
			case notice := <-l.queue:
				fn(notice)
			}
		}
	}()

	return stop, nil
}

// Listeners reports how many listeners are attached.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
