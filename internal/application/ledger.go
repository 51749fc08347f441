package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

const DefaultMaxHistory = 100

// Gate guards ledger mutations behind an authenticated session.
type Gate interface {
	Authorize(ctx context.Context) error
	Touch(ctx context.Context) error
}

// Announcer tells other execution contexts that a topic changed.
type Announcer interface {
	Announce(ctx context.Context, topic domain.Topic)
}

type LedgerConfig struct {
	MaxHistory int
	Logger     *slog.Logger
}

// Ledger owns the token log and the cached balances of one execution
// context. The cache is replaced only after the store committed, so no
// reader observes an append without its balance change.
type Ledger struct {
	mu    sync.Mutex
	state domain.WalletState

	store      ports.WalletStore
	bus        *Bus
	clock      ports.Clock
	ids        ports.IDGenerator
	logger     *slog.Logger
	maxHistory int

	gate      Gate
	announcer Announcer
}

func NewLedger(store ports.WalletStore, bus *Bus, clock ports.Clock, ids ports.IDGenerator, cfg LedgerConfig) *Ledger {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = ports.UUIDv7Generator{}
	}
	if bus == nil {
		bus = NewBus(cfg.Logger)
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Ledger{
		state:      domain.WalletState{Balances: domain.ZeroBalances()},
		store:      store,
		bus:        bus,
		clock:      clock,
		ids:        ids,
		logger:     cfg.Logger,
		maxHistory: cfg.MaxHistory,
	}
}

// SetGate makes every mutation require an authorized session.
func (l *Ledger) SetGate(gate Gate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = gate
}

func (l *Ledger) SetAnnouncer(announcer Announcer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.announcer = announcer
}

// Load primes the cache from the store without publishing events.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.store.Load(ctx)
	if err != nil {
		return storageError("load wallet", err)
	}
	state.Normalize()
	l.state = state
	return nil
}

func (l *Ledger) CreateToken(ctx context.Context, tokenType domain.TokenType, amount int64, source, description string, metadata map[string]string) (domain.Token, error) {
	if err := validateTokenInput(tokenType, amount); err != nil {
		return domain.Token{}, err
	}

	return l.append(ctx, "create token", func(state *domain.WalletState) (domain.Token, error) {
		return l.newToken(state, tokenType, amount, source, description, metadata), nil
	})
}

// Spend debits amount after checking the balance covers it. The check and
// the append run inside one store update.
func (l *Ledger) Spend(ctx context.Context, tokenType domain.TokenType, amount int64, source, description string) (domain.Token, error) {
	if err := validateTokenInput(tokenType, amount); err != nil {
		return domain.Token{}, err
	}
	if amount < 0 {
		return domain.Token{}, fmt.Errorf("%w: spend amount must be positive, got %d", domain.ErrInvalidAmount, amount)
	}

	return l.append(ctx, "spend", func(state *domain.WalletState) (domain.Token, error) {
		if balance := state.Balance(tokenType); balance < amount {
			return domain.Token{}, fmt.Errorf("%w: %s balance %d, need %d", domain.ErrInsufficientBalance, tokenType, balance, amount)
		}
		return l.newToken(state, tokenType, -amount, source, description, nil), nil
	})
}

// CompareAndAppend appends a token only if the stored balance of its type
// still equals expected.
func (l *Ledger) CompareAndAppend(ctx context.Context, tokenType domain.TokenType, expected, amount int64, source, description string, metadata map[string]string) (domain.Token, error) {
	if err := validateTokenInput(tokenType, amount); err != nil {
		return domain.Token{}, err
	}

	return l.append(ctx, "compare and append", func(state *domain.WalletState) (domain.Token, error) {
		if balance := state.Balance(tokenType); balance != expected {
			return domain.Token{}, fmt.Errorf("%w: %s balance is %d, expected %d", domain.ErrBalanceChanged, tokenType, balance, expected)
		}
		return l.newToken(state, tokenType, amount, source, description, metadata), nil
	})
}

// Clear empties the log and resets every balance. Used by reset flows.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.authorize(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	now := l.clock.Now()
	state, err := l.store.Update(ctx, func(state *domain.WalletState) error {
		state.Reset(now)
		return nil
	})
	if err != nil {
		l.mu.Unlock()
		return storageError("clear wallet", err)
	}
	state.Normalize()
	l.state = state
	gate, announcer := l.gate, l.announcer
	l.mu.Unlock()

	l.publish(true, nil)
	l.afterWrite(ctx, gate, announcer)
	return nil
}

func (l *Ledger) GetBalance(tokenType domain.TokenType) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance(tokenType)
}

func (l *Ledger) GetAllBalances() domain.Balances {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances := domain.ZeroBalances()
	for tokenType := range balances {
		balances[tokenType] = l.state.Balance(tokenType)
	}
	return balances
}

// GetAll returns tokens newest first, capped at limit when limit > 0.
func (l *Ledger) GetAll(limit int) []domain.Token {
	l.mu.Lock()
	tokens := l.state.Clone().Tokens
	l.mu.Unlock()

	result := make([]domain.Token, 0, len(tokens))
	for i := len(tokens) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, tokens[i])
	}
	return result
}

// History returns bounded transaction records newest first.
func (l *Ledger) History(limit int) []domain.Transaction {
	l.mu.Lock()
	history := append([]domain.Transaction(nil), l.state.History...)
	l.mu.Unlock()

	result := make([]domain.Transaction, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, history[i])
	}
	return result
}

// Snapshot returns a deep copy of the cached wallet state.
func (l *Ledger) Snapshot() domain.WalletState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Replay recomputes balances from the log and returns the types whose
// cached balance drifted as [cached, replayed] pairs.
func (l *Ledger) Replay() map[domain.TokenType][2]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Drift()
}

// Reload re-reads the store and publishes events for changes made by
// other execution contexts. l.mu is held across the store read so a
// concurrent local write cannot be replaced by an older state.
func (l *Ledger) Reload(ctx context.Context) error {
	l.mu.Lock()
	state, err := l.store.Load(ctx)
	if err != nil {
		l.mu.Unlock()
		return storageError("reload wallet", err)
	}
	state.Normalize()
	cleared, added := diffLog(l.state.Tokens, state.Tokens)
	l.state = state
	l.mu.Unlock()

	l.publish(cleared, added)
	return nil
}

func (l *Ledger) append(ctx context.Context, op string, build func(state *domain.WalletState) (domain.Token, error)) (domain.Token, error) {
	if err := l.authorize(ctx); err != nil {
		return domain.Token{}, err
	}

	l.mu.Lock()
	var (
		created  domain.Token
		rejected error
	)
	state, err := l.store.Update(ctx, func(state *domain.WalletState) error {
		state.Normalize()
		token, buildErr := build(state)
		if buildErr != nil {
			rejected = buildErr
			return buildErr
		}
		state.Append(token, l.maxHistory)
		created = token
		return nil
	})
	if rejected != nil {
		l.mu.Unlock()
		return domain.Token{}, rejected
	}
	if err != nil {
		l.mu.Unlock()
		return domain.Token{}, storageError(op, err)
	}

	state.Normalize()
	cleared, added := diffLog(l.state.Tokens, state.Tokens)
	l.state = state
	gate, announcer := l.gate, l.announcer
	l.mu.Unlock()

	l.publish(cleared, added)
	l.afterWrite(ctx, gate, announcer)
	return created, nil
}

func (l *Ledger) newToken(state *domain.WalletState, tokenType domain.TokenType, amount int64, source, description string, metadata map[string]string) domain.Token {
	var copied map[string]string
	if len(metadata) > 0 {
		copied = make(map[string]string, len(metadata))
		for key, value := range metadata {
			copied[key] = value
		}
	}

	return domain.Token{
		ID:          l.ids.NewID(),
		Seq:         state.NextSeq(),
		Type:        tokenType,
		Amount:      amount,
		Source:      strings.TrimSpace(source),
		Description: description,
		Timestamp:   l.clock.Now(),
		Metadata:    copied,
	}
}

// authorize runs without l.mu held: the gate may publish login events
// whose handlers read the ledger.
func (l *Ledger) authorize(ctx context.Context) error {
	l.mu.Lock()
	gate := l.gate
	l.mu.Unlock()

	if gate == nil {
		return nil
	}
	if err := gate.Authorize(ctx); err != nil {
		return fmt.Errorf("authorize ledger write: %w", err)
	}
	return nil
}

func (l *Ledger) publish(cleared bool, added []domain.Token) {
	if cleared {
		l.bus.PublishTokensCleared()
	}
	for _, token := range added {
		l.bus.PublishTokenCreated(token)
	}
}

func (l *Ledger) afterWrite(ctx context.Context, gate Gate, announcer Announcer) {
	if gate != nil {
		if err := gate.Touch(ctx); err != nil {
			l.logger.Warn("refresh session activity", slog.Any("error", err))
		}
	}
	if announcer != nil {
		announcer.Announce(ctx, domain.TopicWallet)
	}
}

func validateTokenInput(tokenType domain.TokenType, amount int64) error {
	if !tokenType.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTokenType, tokenType)
	}
	if amount == 0 {
		return fmt.Errorf("%w: amount must be non-zero", domain.ErrInvalidAmount)
	}
	return nil
}

// diffLog compares two views of the log. cleared is set when a token known
// before is gone; added lists tokens not seen before, in log order.
func diffLog(prev, next []domain.Token) (cleared bool, added []domain.Token) {
	nextIDs := make(map[string]struct{}, len(next))
	for _, token := range next {
		nextIDs[token.ID] = struct{}{}
	}
	known := make(map[string]struct{}, len(prev))
	for _, token := range prev {
		known[token.ID] = struct{}{}
		if _, ok := nextIDs[token.ID]; !ok {
			cleared = true
		}
	}
	for _, token := range next {
		if _, ok := known[token.ID]; !ok {
			added = append(added, token)
		}
	}
	return cleared, added
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
