package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/tokenwallet/internal/adapters/broadcast/fswatch"
	"github.com/bnema/tokenwallet/internal/adapters/broadcast/memory"
	"github.com/bnema/tokenwallet/internal/adapters/broadcast/redis"
	walletrender "github.com/bnema/tokenwallet/internal/adapters/render/wallet"
	sqliterepo "github.com/bnema/tokenwallet/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/tokenwallet/internal/adapters/repo/toml"
	filesecrets "github.com/bnema/tokenwallet/internal/adapters/secrets/file"
	"github.com/bnema/tokenwallet/internal/adapters/snapshot"
	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
)

// app is one execution context: its own bus, ledger, session manager and
// broadcaster over the shared store.
type app struct {
	config      *viper.Viper
	logger      *slog.Logger
	clock       ports.Clock
	bus         *application.Bus
	ledger      *application.Ledger
	sessions    *application.Sessions
	broadcaster *application.Broadcaster
	cache       ports.CollectionRepository
	httpClient  *http.Client
	render      func(walletrender.Snapshot) (string, error)
	closers     []func() error
}

// processHub links every execution context wired in this process when
// broadcast.transport is memory.
var processHub = memory.NewHub()

func wireApp(ctx context.Context, logger *slog.Logger) (_ *app, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dataDir, err := tomlrepo.DataDir(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:     cfg,
		logger:     logger,
		clock:      ports.SystemClock{},
		httpClient: http.DefaultClient,
		render:     walletrender.Render,
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	wallet, walletFiles, err := a.openWalletStore(cfg, dataDir)
	if err != nil {
		return nil, err
	}
	sessionRepo, err := tomlrepo.NewSessionRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}
	users, err := tomlrepo.NewUserRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire user repository: %w", err)
	}
	cache, err := tomlrepo.NewCollectionRepository(cfg, a.clock)
	if err != nil {
		return nil, fmt.Errorf("wire collection cache: %w", err)
	}
	a.cache = cache

	sessionCfg, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	sessionCfg.Logger = logger

	ids := ports.UUIDv7Generator{}
	a.bus = application.NewBus(logger)
	a.ledger = application.NewLedger(wallet, a.bus, a.clock, ids, application.LedgerConfig{
		MaxHistory: cfg.GetInt(historyMaxKey),
		Logger:     logger,
	})
	a.sessions = application.NewSessions(sessionRepo, users, filesecrets.NewStoreFromConfig(cfg, dataDir), a.bus, a.clock, ids, sessionCfg)
	a.ledger.SetGate(a.sessions)
	a.sessions.SetIssuer(a.ledger)

	files := map[string]domain.Topic{sessionRepo.Path(): domain.TopicSession}
	for _, path := range walletFiles {
		files[path] = domain.TopicWallet
	}
	transport, err := a.openTransport(ctx, cfg, files)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationValue(cfg, pollIntervalKey)
	if err != nil {
		return nil, err
	}
	a.broadcaster = application.NewBroadcaster(transport, a.clock, application.BroadcasterConfig{
		PollInterval: pollInterval,
		Logger:       logger,
	})
	a.broadcaster.Register(domain.TopicWallet, a.ledger)
	a.broadcaster.Register(domain.TopicSession, a.sessions)
	a.ledger.SetAnnouncer(a.broadcaster)
	a.sessions.SetAnnouncer(a.broadcaster)

	if err := a.ledger.Load(ctx); err != nil {
		return nil, err
	}
	if err := a.sessions.Load(ctx); err != nil {
		return nil, err
	}

	logger.Debug("wired execution context",
		slog.String("data_dir", dataDir),
		slog.String("store", cfg.GetString(storeBackendKey)),
		slog.String("transport", cfg.GetString(transportKey)),
		slog.String("origin", a.broadcaster.Origin()),
	)
	return a, nil
}

func (a *app) openWalletStore(cfg *viper.Viper, dataDir string) (ports.WalletStore, []string, error) {
	switch backend := cfg.GetString(storeBackendKey); backend {
	case backendTOML, "":
		repo, err := tomlrepo.NewWalletRepository(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("wire wallet repository: %w", err)
		}
		return repo, []string{repo.Path()}, nil
	case backendSQLite:
		store, err := sqliterepo.OpenFromConfig(cfg, dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite wallet store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		// WAL mode: commits land in the -wal file before a checkpoint.
		return store, []string{store.Path(), store.Path() + "-wal"}, nil
	default:
		return nil, nil, fmt.Errorf("%s: unsupported backend %q (want %s or %s)", storeBackendKey, backend, backendTOML, backendSQLite)
	}
}

func (a *app) openTransport(ctx context.Context, cfg *viper.Viper, files map[string]domain.Topic) (ports.ChangeTransport, error) {
	switch kind := cfg.GetString(transportKey); kind {
	case transportNone, "":
		return nil, nil
	case transportFS:
		return fswatch.NewWatcher(files, a.clock, a.logger), nil
	case transportMemory:
		return processHub, nil
	case transportRedis:
		addr := cfg.GetString(redisAddrKey)
		if addr == "" {
			return nil, fmt.Errorf("%s is required for the redis transport", redisAddrKey)
		}
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		transport, err := redis.Dial(dialCtx, addr, cfg.GetString(redisPrefixKey), a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, transport.Close)
		return transport, nil
	default:
		return nil, fmt.Errorf("%s: unsupported transport %q (want %s, %s, %s or %s)", transportKey, kind, transportNone, transportFS, transportMemory, transportRedis)
	}
}

// syncService picks the snapshot source: fromDir when given, sync.url
// otherwise.
func (a *app) syncService(fromDir string) (*application.SyncService, error) {
	var source ports.SnapshotSource
	switch {
	case fromDir != "":
		source = snapshot.FileSource{Dir: fromDir}
	case a.config.GetString(syncURLKey) != "":
		source = snapshot.HTTPSource{BaseURL: a.config.GetString(syncURLKey), HTTPClient: a.httpClient}
	default:
		return nil, fmt.Errorf("no snapshot source: pass --from or set %s (TW_SYNC_URL)", syncURLKey)
	}
	return application.NewSyncService(a.cache, source, a.clock), nil
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	if a.broadcaster != nil {
		a.broadcaster.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
