package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - tokens, history, balances and wallet_meta tables
const currentSchemaVersion = 1

const (
	// PathKey selects the database file.
	PathKey = "sqlite.path"

	defaultFileName = "wallet.db"
	lastUpdatedKey  = "last_updated"
)

// Store is a WalletStore backed by SQLite. Update runs inside a
// BEGIN IMMEDIATE transaction, so read-check-write cycles are atomic
// across processes sharing the file.
type Store struct {
	db   *sql.DB
	path string
}

var _ ports.WalletStore = (*Store)(nil)

// OpenFromConfig opens sqlite.path, or wallet.db inside dataDir.
func OpenFromConfig(cfg *viper.Viper, dataDir string) (*Store, error) {
	path := ""
	if cfg != nil {
		path = strings.TrimSpace(cfg.GetString(PathKey))
	}
	if path == "" {
		path = filepath.Join(dataDir, defaultFileName)
	}
	return Open(path)
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + cleanPath +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	// One writer at a time; the pinned connection also carries the
	// explicit transaction used by Update.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: cleanPath}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported wallet database version %d (current %d)", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (domain.WalletState, error) {
	if err := ctx.Err(); err != nil {
		return domain.WalletState{}, err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return domain.WalletState{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return readState(ctx, conn)
}

func (s *Store) Update(ctx context.Context, fn func(state *domain.WalletState) error) (state domain.WalletState, err error) {
	if err := ctx.Err(); err != nil {
		return domain.WalletState{}, err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return domain.WalletState{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return domain.WalletState{}, fmt.Errorf("begin wallet transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if _, rollbackErr := conn.ExecContext(context.Background(), "ROLLBACK"); rollbackErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback wallet transaction: %w", rollbackErr))
		}
	}()

	previous, err := readState(ctx, conn)
	if err != nil {
		return domain.WalletState{}, err
	}

	next := previous.Clone()
	if err := fn(&next); err != nil {
		return domain.WalletState{}, err
	}
	next.Normalize()

	if err := writeState(ctx, conn, previous, next); err != nil {
		return domain.WalletState{}, err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return domain.WalletState{}, fmt.Errorf("commit wallet transaction: %w", err)
	}
	committed = true

	return next, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readState(ctx context.Context, q queryer) (domain.WalletState, error) {
	state := domain.WalletState{Balances: domain.ZeroBalances()}

	var lastUpdated string
	err := q.QueryRowContext(ctx, "SELECT value FROM wallet_meta WHERE key = ?", lastUpdatedKey).Scan(&lastUpdated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.WalletState{}, fmt.Errorf("read wallet metadata: %w", err)
	default:
		state.LastUpdated = parseTime(lastUpdated)
	}

	if err := readBalances(ctx, q, &state); err != nil {
		return domain.WalletState{}, err
	}
	if err := readTokens(ctx, q, &state); err != nil {
		return domain.WalletState{}, err
	}
	if err := readHistory(ctx, q, &state); err != nil {
		return domain.WalletState{}, err
	}

	state.Normalize()
	return state, nil
}

func readBalances(ctx context.Context, q queryer, state *domain.WalletState) error {
	rows, err := q.QueryContext(ctx, "SELECT token_type, balance FROM balances")
	if err != nil {
		return fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tokenType string
		var balance int64
		if err := rows.Scan(&tokenType, &balance); err != nil {
			return fmt.Errorf("scan balance: %w", err)
		}
		state.Balances[domain.TokenType(tokenType)] = balance
	}
	return rows.Err()
}

func readTokens(ctx context.Context, q queryer, state *domain.WalletState) error {
	rows, err := q.QueryContext(ctx, `SELECT seq, id, token_type, amount, source, description, created_at, metadata
		FROM tokens ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			token     domain.Token
			tokenType string
			createdAt string
			metadata  string
		)
		if err := rows.Scan(&token.Seq, &token.ID, &tokenType, &token.Amount, &token.Source, &token.Description, &createdAt, &metadata); err != nil {
			return fmt.Errorf("scan token: %w", err)
		}
		token.Type = domain.TokenType(tokenType)
		token.Timestamp = parseTime(createdAt)
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &token.Metadata); err != nil {
				return fmt.Errorf("decode metadata for token %s: %w", token.ID, err)
			}
		}
		state.Tokens = append(state.Tokens, token)
	}
	return rows.Err()
}

func readHistory(ctx context.Context, q queryer, state *domain.WalletState) error {
	rows, err := q.QueryContext(ctx, `SELECT token_id, kind, token_type, amount, source, description, created_at, balance
		FROM history ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tx        domain.Transaction
			kind      string
			tokenType string
			createdAt string
		)
		if err := rows.Scan(&tx.TokenID, &kind, &tokenType, &tx.Amount, &tx.Source, &tx.Description, &createdAt, &tx.Balance); err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		tx.Kind = domain.TransactionKind(kind)
		tx.TokenType = domain.TokenType(tokenType)
		tx.Timestamp = parseTime(createdAt)
		state.History = append(state.History, tx)
	}
	return rows.Err()
}

// writeState persists next. When next extends previous the new tokens
// are appended; any other change rewrites the log.
func writeState(ctx context.Context, q queryer, previous, next domain.WalletState) error {
	start := 0
	if extendsLog(previous.Tokens, next.Tokens) {
		start = len(previous.Tokens)
	} else if _, err := q.ExecContext(ctx, "DELETE FROM tokens"); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}

	for _, token := range next.Tokens[start:] {
		metadata := "{}"
		if len(token.Metadata) > 0 {
			encoded, err := json.Marshal(token.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for token %s: %w", token.ID, err)
			}
			metadata = string(encoded)
		}
		if _, err := q.ExecContext(ctx, `INSERT INTO tokens (seq, id, token_type, amount, source, description, created_at, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			token.Seq, token.ID, string(token.Type), token.Amount, token.Source, token.Description,
			formatTime(token.Timestamp), metadata); err != nil {
			return fmt.Errorf("insert token %s: %w", token.ID, err)
		}
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	for i, tx := range next.History {
		if _, err := q.ExecContext(ctx, `INSERT INTO history (position, token_id, kind, token_type, amount, source, description, created_at, balance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, tx.TokenID, string(tx.Kind), string(tx.TokenType), tx.Amount, tx.Source, tx.Description,
			formatTime(tx.Timestamp), tx.Balance); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	for tokenType, balance := range next.Balances {
		if _, err := q.ExecContext(ctx, `INSERT INTO balances (token_type, balance) VALUES (?, ?)
			ON CONFLICT(token_type) DO UPDATE SET balance = excluded.balance`, string(tokenType), balance); err != nil {
			return fmt.Errorf("upsert balance %s: %w", tokenType, err)
		}
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO wallet_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, lastUpdatedKey, formatTime(next.LastUpdated)); err != nil {
		return fmt.Errorf("write wallet metadata: %w", err)
	}

	return nil
}

func extendsLog(previous, next []domain.Token) bool {
	if len(next) < len(previous) {
		return false
	}
	for i := range previous {
		if previous[i].ID != next[i].ID || previous[i].Seq != next[i].Seq {
			return false
		}
	}
	return true
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339Nano)
}
