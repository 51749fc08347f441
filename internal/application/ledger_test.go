package application

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	tomlrepo "github.com/bnema/tokenwallet/internal/adapters/repo/toml"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/bnema/tokenwallet/internal/ports/mocks"
	"github.com/bnema/tokenwallet/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testLedger struct {
	ledger *Ledger
	events *recorder
	clock  *testutil.FakeClock
	path   string
}

func newTestLedger(t *testing.T, maxHistory int) testLedger {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wallet.toml")
	config := viper.New()
	config.Set(tomlrepo.WalletPathKey, path)
	store, err := tomlrepo.NewWalletRepository(config)
	require.NoError(t, err)

	clock := testutil.NewFakeClock(testStart)
	ledger := NewLedger(store, NewBus(discardLogger()), clock, testutil.NewSequentialIDs("tok"), LedgerConfig{
		MaxHistory: maxHistory,
		Logger:     discardLogger(),
	})
	require.NoError(t, ledger.Load(context.Background()))

	events := &recorder{}
	ledger.bus.Subscribe(events.handlers())
	return testLedger{ledger: ledger, events: events, clock: clock, path: path}
}

func TestLedgerCreateSpendScenario(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()

	token, err := tl.ledger.CreateToken(ctx, domain.TokenTypeInfinity, 10, "x", "bonus", nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.ID)
	assert.Equal(t, int64(1), token.Seq)
	assert.Equal(t, testStart, token.Timestamp)
	assert.Equal(t, int64(10), tl.ledger.GetBalance(domain.TokenTypeInfinity))

	_, err = tl.ledger.Spend(ctx, domain.TokenTypeInfinity, 15, "x", "buy")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(10), tl.ledger.GetBalance(domain.TokenTypeInfinity))

	debit, err := tl.ledger.Spend(ctx, domain.TokenTypeInfinity, 10, "x", "buy")
	require.NoError(t, err)
	assert.Equal(t, int64(-10), debit.Amount)
	assert.Equal(t, int64(0), tl.ledger.GetBalance(domain.TokenTypeInfinity))

	assert.Equal(t, []string{string(EventTokenCreated), string(EventTokenCreated)}, tl.events.Events())
	assert.Empty(t, tl.ledger.Replay())
}

func TestLedgerBalanceEqualsSumOfAmounts(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()
	amounts := []int64{5, -2, 7, 11, -3, 1}

	var want int64
	for _, amount := range amounts {
		_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeXP, amount, "test", "", nil)
		require.NoError(t, err)
		want += amount
	}

	assert.Equal(t, want, tl.ledger.GetBalance(domain.TokenTypeXP))
	assert.Equal(t, want, tl.ledger.GetBalance(domain.TokenTypeXP), "re-reading is idempotent")
	assert.Equal(t, want, domain.ReplayBalances(tl.ledger.Snapshot().Tokens)[domain.TokenTypeXP])
}

func TestLedgerRejectsInvalidInputWithoutSideEffects(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()
	_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeBadge, 3, "seed", "", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name: "zero amount",
			call: func() error {
				_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeBadge, 0, "x", "", nil)
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unknown type",
			call: func() error {
				_, err := tl.ledger.CreateToken(ctx, domain.TokenType("gold_tokens"), 1, "x", "", nil)
				return err
			},
			wantErr: domain.ErrInvalidTokenType,
		},
		{
			name: "negative spend",
			call: func() error {
				_, err := tl.ledger.Spend(ctx, domain.TokenTypeBadge, -1, "x", "")
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "zero spend",
			call: func() error {
				_, err := tl.ledger.Spend(ctx, domain.TokenTypeBadge, 0, "x", "")
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "overdraw",
			call: func() error {
				_, err := tl.ledger.Spend(ctx, domain.TokenTypeBadge, 4, "x", "")
				return err
			},
			wantErr: domain.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), tt.wantErr)
			assert.Equal(t, int64(3), tl.ledger.GetBalance(domain.TokenTypeBadge))
			assert.Len(t, tl.ledger.GetAll(0), 1)
		})
	}
	assert.Len(t, tl.events.Events(), 1)
}

func TestLedgerNegativeCreateIsAllowed(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)

	token, err := tl.ledger.CreateToken(context.Background(), domain.TokenTypeCreator, -5, "adjust", "", nil)
	require.NoError(t, err)
	assert.True(t, token.IsDebit())
	assert.Equal(t, int64(-5), tl.ledger.GetBalance(domain.TokenTypeCreator))
}

func TestLedgerGetAllAndHistoryAreNewestFirst(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 3)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		tl.clock.Advance(time.Minute)
		_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeInfinity, int64(i), "x", strconv.Itoa(i), nil)
		require.NoError(t, err)
	}

	all := tl.ledger.GetAll(0)
	require.Len(t, all, 5)
	assert.Equal(t, "tok-5", all[0].ID)
	assert.Equal(t, "tok-1", all[4].ID)

	limited := tl.ledger.GetAll(2)
	assert.Equal(t, []string{"tok-5", "tok-4"}, []string{limited[0].ID, limited[1].ID})

	history := tl.ledger.History(0)
	require.Len(t, history, 3, "history is bounded")
	assert.Equal(t, "tok-5", history[0].TokenID)
	assert.Equal(t, int64(15), history[0].Balance)
	assert.Equal(t, "tok-3", history[2].TokenID)
}

func TestLedgerGetAllBalancesHasEveryType(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	_, err := tl.ledger.CreateToken(context.Background(), domain.TokenTypeXP, 2, "x", "", nil)
	require.NoError(t, err)

	balances := tl.ledger.GetAllBalances()
	assert.Len(t, balances, len(domain.TokenTypes()))
	assert.Equal(t, int64(2), balances[domain.TokenTypeXP])
	assert.Equal(t, int64(0), balances[domain.TokenTypeInfinity])

	balances[domain.TokenTypeXP] = 100
	assert.Equal(t, int64(2), tl.ledger.GetBalance(domain.TokenTypeXP), "returned map is a copy")
}

func TestLedgerClearResetsAndPublishes(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()
	_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeInfinity, 10, "x", "", nil)
	require.NoError(t, err)

	require.NoError(t, tl.ledger.Clear(ctx))

	assert.Equal(t, domain.ZeroBalances(), tl.ledger.GetAllBalances())
	assert.Empty(t, tl.ledger.GetAll(0))
	assert.Empty(t, tl.ledger.History(0))
	assert.Equal(t, []string{string(EventTokenCreated), string(EventTokensCleared)}, tl.events.Events())

	require.NoError(t, tl.ledger.Clear(ctx))
	assert.Len(t, tl.events.Events(), 3, "clearing an empty ledger still publishes")
}

func TestLedgerPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	_, err := tl.ledger.CreateToken(context.Background(), domain.TokenTypeBadge, 4, "x", "", map[string]string{"badge": "first"})
	require.NoError(t, err)

	config := viper.New()
	config.Set(tomlrepo.WalletPathKey, tl.path)
	store, err := tomlrepo.NewWalletRepository(config)
	require.NoError(t, err)
	reopened := NewLedger(store, nil, nil, nil, LedgerConfig{Logger: discardLogger()})
	require.NoError(t, reopened.Load(context.Background()))

	assert.Equal(t, int64(4), reopened.GetBalance(domain.TokenTypeBadge))
	assert.Equal(t, map[string]string{"badge": "first"}, reopened.GetAll(1)[0].Metadata)
}

func TestLedgerCompareAndAppend(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()
	_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeXP, 5, "x", "", nil)
	require.NoError(t, err)

	_, err = tl.ledger.CompareAndAppend(ctx, domain.TokenTypeXP, 4, -5, "x", "", nil)
	require.ErrorIs(t, err, domain.ErrBalanceChanged)
	assert.Equal(t, int64(5), tl.ledger.GetBalance(domain.TokenTypeXP))

	_, err = tl.ledger.CompareAndAppend(ctx, domain.TokenTypeXP, 5, -5, "x", "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tl.ledger.GetBalance(domain.TokenTypeXP))
}

func TestLedgerSpendChecksFreshStoredBalance(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()
	_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeInfinity, 10, "x", "", nil)
	require.NoError(t, err)

	config := viper.New()
	config.Set(tomlrepo.WalletPathKey, tl.path)
	store, err := tomlrepo.NewWalletRepository(config)
	require.NoError(t, err)
	other := NewLedger(store, nil, tl.clock, testutil.NewSequentialIDs("other"), LedgerConfig{Logger: discardLogger()})
	require.NoError(t, other.Load(ctx))

	_, err = other.Spend(ctx, domain.TokenTypeInfinity, 8, "x", "")
	require.NoError(t, err)

	// tl still caches 10 but the store holds 2.
	assert.Equal(t, int64(10), tl.ledger.GetBalance(domain.TokenTypeInfinity))
	_, err = tl.ledger.Spend(ctx, domain.TokenTypeInfinity, 8, "x", "")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestLedgerReloadPublishesForeignChanges(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	ctx := context.Background()

	config := viper.New()
	config.Set(tomlrepo.WalletPathKey, tl.path)
	store, err := tomlrepo.NewWalletRepository(config)
	require.NoError(t, err)
	other := NewLedger(store, nil, tl.clock, testutil.NewSequentialIDs("other"), LedgerConfig{Logger: discardLogger()})
	require.NoError(t, other.Load(ctx))

	_, err = other.CreateToken(ctx, domain.TokenTypeXP, 3, "x", "", nil)
	require.NoError(t, err)
	require.NoError(t, tl.ledger.Reload(ctx))

	assert.Equal(t, int64(3), tl.ledger.GetBalance(domain.TokenTypeXP))
	require.Len(t, tl.events.Tokens(), 1)
	assert.Equal(t, "other-1", tl.events.Tokens()[0].ID)

	require.NoError(t, tl.ledger.Reload(ctx))
	assert.Len(t, tl.events.Events(), 1, "reloading unchanged state publishes nothing")

	require.NoError(t, other.Clear(ctx))
	require.NoError(t, tl.ledger.Reload(ctx))
	assert.Equal(t, []string{string(EventTokenCreated), string(EventTokensCleared)}, tl.events.Events())
}

// pausingStore holds the next Load open until release is closed.
type pausingStore struct {
	ports.WalletStore

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (s *pausingStore) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	s.entered = make(chan struct{})
	s.release = make(chan struct{})
}

func (s *pausingStore) Load(ctx context.Context) (domain.WalletState, error) {
	state, err := s.WalletStore.Load(ctx)

	s.mu.Lock()
	armed, entered, release := s.armed, s.entered, s.release
	s.armed = false
	s.mu.Unlock()
	if armed {
		close(entered)
		<-release
	}
	return state, err
}

func TestLedgerReloadDoesNotOverwriteConcurrentAppend(t *testing.T) {
	t.Parallel()

	config := viper.New()
	config.Set(tomlrepo.WalletPathKey, filepath.Join(t.TempDir(), "wallet.toml"))
	inner, err := tomlrepo.NewWalletRepository(config)
	require.NoError(t, err)
	store := &pausingStore{WalletStore: inner}

	ledger := NewLedger(store, NewBus(discardLogger()), testutil.NewFakeClock(testStart), testutil.NewSequentialIDs("tok"), LedgerConfig{Logger: discardLogger()})
	ctx := context.Background()
	require.NoError(t, ledger.Load(ctx))
	events := &recorder{}
	ledger.bus.Subscribe(events.handlers())

	store.arm()
	reloaded := make(chan error, 1)
	go func() { reloaded <- ledger.Reload(ctx) }()
	<-store.entered

	created := make(chan error, 1)
	go func() {
		_, err := ledger.CreateToken(ctx, domain.TokenTypeInfinity, 10, "x", "", nil)
		created <- err
	}()

	select {
	case err := <-created:
		t.Fatalf("create committed while a reload was reading the store: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)

	require.NoError(t, <-reloaded)
	require.NoError(t, <-created)
	assert.Equal(t, int64(10), ledger.GetBalance(domain.TokenTypeInfinity))
	assert.Equal(t, []string{string(EventTokenCreated)}, events.Events())

	require.NoError(t, ledger.Reload(ctx))
	assert.Equal(t, []string{string(EventTokenCreated)}, events.Events(), "reload after the append publishes nothing")
}

func TestLedgerStorageUnavailableLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockWalletStore(t)
	store.EXPECT().Load(mockAnyContext()).Return(domain.WalletState{}, nil).Once()
	store.EXPECT().Update(mockAnyContext(), mock.Anything).Return(domain.WalletState{}, errors.New("disk full"))

	ledger := NewLedger(store, NewBus(discardLogger()), testutil.NewFakeClock(testStart), testutil.NewSequentialIDs("tok"), LedgerConfig{Logger: discardLogger()})
	require.NoError(t, ledger.Load(context.Background()))
	events := &recorder{}
	ledger.bus.Subscribe(events.handlers())

	_, err := ledger.CreateToken(context.Background(), domain.TokenTypeXP, 1, "x", "", nil)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorContains(t, err, "disk full")

	err = ledger.Clear(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.Equal(t, int64(0), ledger.GetBalance(domain.TokenTypeXP))
	assert.Empty(t, events.Events())
}

func TestLedgerLoadFailureReportsStorageUnavailable(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockWalletStore(t)
	store.EXPECT().Load(mockAnyContext()).Return(domain.WalletState{}, errors.New("permission denied"))

	ledger := NewLedger(store, nil, nil, nil, LedgerConfig{Logger: discardLogger()})
	require.ErrorIs(t, ledger.Load(context.Background()), domain.ErrStorageUnavailable)
	assert.Equal(t, domain.ZeroBalances(), ledger.GetAllBalances())
}

type stubGate struct {
	authorizeErr error
	touches      int
}

func (g *stubGate) Authorize(context.Context) error { return g.authorizeErr }

func (g *stubGate) Touch(context.Context) error {
	g.touches++
	return nil
}

type stubAnnouncer struct {
	topics []domain.Topic
}

func (a *stubAnnouncer) Announce(_ context.Context, topic domain.Topic) {
	a.topics = append(a.topics, topic)
}

func TestLedgerGateAndAnnouncer(t *testing.T) {
	t.Parallel()

	tl := newTestLedger(t, 0)
	gate := &stubGate{authorizeErr: domain.ErrNotAuthenticated}
	announcer := &stubAnnouncer{}
	tl.ledger.SetGate(gate)
	tl.ledger.SetAnnouncer(announcer)
	ctx := context.Background()

	_, err := tl.ledger.CreateToken(ctx, domain.TokenTypeXP, 1, "x", "", nil)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	require.ErrorIs(t, tl.ledger.Clear(ctx), domain.ErrNotAuthenticated)
	assert.Empty(t, announcer.topics)
	assert.Empty(t, tl.events.Events())

	gate.authorizeErr = nil
	_, err = tl.ledger.CreateToken(ctx, domain.TokenTypeXP, 1, "x", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gate.touches)
	assert.Equal(t, []domain.Topic{domain.TopicWallet}, announcer.topics)
}
