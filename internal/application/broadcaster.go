package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

const (
	DefaultPollInterval = 5 * time.Second
	pollOrigin          = "poll"
)

// Reloader re-reads one concern from the persisted store and re-publishes
// the resulting local events.
type Reloader interface {
	Reload(ctx context.Context) error
}

type BroadcasterConfig struct {
	Origin       string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Broadcaster propagates committed mutations to other execution contexts.
// Pushed notices and poll ticks share one path: both end in the topic's
// Reloader, never in applying the notice itself.
type Broadcaster struct {
	transport    ports.ChangeTransport
	clock        ports.Clock
	origin       string
	pollInterval time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	reloaders  map[domain.Topic]Reloader
	running    bool
	cancel     context.CancelFunc
	stopListen func()
	pollDone   chan struct{}
}

func NewBroadcaster(transport ports.ChangeTransport, clock ports.Clock, cfg BroadcasterConfig) *Broadcaster {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.Origin == "" {
		cfg.Origin = ports.UUIDv7Generator{}.NewID()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Broadcaster{
		transport:    transport,
		clock:        clock,
		origin:       cfg.Origin,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		reloaders:    map[domain.Topic]Reloader{},
	}
}

func (b *Broadcaster) Origin() string {
	return b.origin
}

// Register binds the reloader that handles changes on topic.
func (b *Broadcaster) Register(topic domain.Topic, reloader Reloader) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloaders[topic] = reloader
}

// Announce emits a change notice for topic. Transport failures are logged
// and never returned: the local write that triggered them already committed.
func (b *Broadcaster) Announce(ctx context.Context, topic domain.Topic) {
	if b.transport == nil {
		return
	}

	notice := domain.ChangeNotice{Topic: topic, Origin: b.origin, At: b.clock.Now()}
	if err := b.transport.Notify(ctx, notice); err != nil {
		b.logger.Warn("broadcast change notice",
			slog.String("topic", string(topic)),
			slog.Any("error", err),
		)
	}
}

// Start listens on the transport and runs the fallback poller until Stop
// is called or ctx is done. Starting a running broadcaster is a no-op.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	if b.transport != nil {
		stop, err := b.transport.Listen(runCtx, func(notice domain.ChangeNotice) {
			b.handle(runCtx, notice)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("listen for change notices: %w", err)
		}
		b.stopListen = stop
	}

	b.pollDone = nil
	if b.pollInterval > 0 {
		done := make(chan struct{})
		b.pollDone = done
		go b.pollLoop(runCtx, done)
	}

	b.cancel = cancel
	b.running = true
	b.logger.Debug("broadcaster started",
		slog.String("origin", b.origin),
		slog.Duration("poll_interval", b.pollInterval),
	)
	return nil
}

// Stop tears down the listener and poller. It is safe to call repeatedly.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel, stopListen, pollDone := b.cancel, b.stopListen, b.pollDone
	b.cancel, b.stopListen, b.pollDone = nil, nil, nil
	b.mu.Unlock()

	cancel()
	if stopListen != nil {
		stopListen()
	}
	if pollDone != nil {
		<-pollDone
	}
}

// Poll runs one fallback pass over every registered topic.
func (b *Broadcaster) Poll(ctx context.Context) {
	for _, topic := range domain.Topics() {
		b.handle(ctx, domain.ChangeNotice{Topic: topic, Origin: pollOrigin, At: b.clock.Now()})
	}
}

func (b *Broadcaster) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Poll(ctx)
		}
	}
}

func (b *Broadcaster) handle(ctx context.Context, notice domain.ChangeNotice) {
	if notice.Origin == b.origin {
		return
	}
	if !notice.Topic.Valid() {
		b.logger.Debug("ignore change notice for unknown topic", slog.String("topic", string(notice.Topic)))
		return
	}

	b.mu.Lock()
	reloader := b.reloaders[notice.Topic]
	b.mu.Unlock()
	if reloader == nil {
		return
	}

	if err := reloader.Reload(ctx); err != nil {
		b.logger.Warn("reload after change notice",
			slog.String("topic", string(notice.Topic)),
			slog.String("origin", notice.Origin),
			slog.Any("error", err),
		)
	}
}
