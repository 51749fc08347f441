package application

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	filesecrets "github.com/bnema/tokenwallet/internal/adapters/secrets/file"
	tomlrepo "github.com/bnema/tokenwallet/internal/adapters/repo/toml"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testStart = time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)

func mockAnyContext() interface{} {
	return mock.Anything
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder captures bus events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []string
	tokens []domain.Token
	users  []*domain.User
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnTokenCreated: func(token domain.Token) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, string(EventTokenCreated))
			r.tokens = append(r.tokens, token)
		},
		OnTokensCleared: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, string(EventTokensCleared))
		},
		OnLoginChanged: func(user *domain.User) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, string(EventLoginChanged))
			r.users = append(r.users, user)
		},
	}
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Tokens() []domain.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Token(nil), r.tokens...)
}

func (r *recorder) Users() []*domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.User(nil), r.users...)
}

// storePaths is one persisted store shared by every context built on it.
type storePaths struct {
	config *viper.Viper
	secret string
}

func newStorePaths(t *testing.T) storePaths {
	t.Helper()

	dir := t.TempDir()
	config := viper.New()
	config.Set(tomlrepo.DataDirKey, dir)
	return storePaths{config: config, secret: filepath.Join(dir, "secrets")}
}

// walletContext is one execution context: its own bus, ledger and
// session manager over the shared store.
type walletContext struct {
	bus      *Bus
	ledger   *Ledger
	sessions *Sessions
	events   *recorder
}

func newWalletContext(t *testing.T, paths storePaths, clock *testutil.FakeClock, ids *testutil.SequentialIDs) *walletContext {
	t.Helper()

	wallet, err := tomlrepo.NewWalletRepository(paths.config)
	require.NoError(t, err)
	sessionRepo, err := tomlrepo.NewSessionRepository(paths.config)
	require.NoError(t, err)
	users, err := tomlrepo.NewUserRepository(paths.config)
	require.NoError(t, err)

	logger := discardLogger()
	bus := NewBus(logger)
	ledger := NewLedger(wallet, bus, clock, ids, LedgerConfig{Logger: logger})
	sessions := NewSessions(sessionRepo, users, filesecrets.NewStore(paths.secret), bus, clock, ids, SessionConfig{
		HashCost: bcrypt.MinCost,
		Logger:   logger,
	})
	ledger.SetGate(sessions)
	sessions.SetIssuer(ledger)

	require.NoError(t, ledger.Load(context.Background()))
	require.NoError(t, sessions.Load(context.Background()))

	events := &recorder{}
	bus.Subscribe(events.handlers())

	return &walletContext{bus: bus, ledger: ledger, sessions: sessions, events: events}
}

func testProfile() domain.Profile {
	return domain.Profile{Email: "ada@example.com", DisplayName: "Ada", Secret: "hunter22"}
}
