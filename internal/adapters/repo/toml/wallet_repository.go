package toml

import (
	"context"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
)

const (
	WalletPathKey  = "wallet.path"
	walletFileName = "wallet.toml"
)

// WalletRepository stores the wallet in one TOML file. Updates are
// serialized per path inside a process; writers in other processes are
// not locked out.
type WalletRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.WalletStore = (*WalletRepository)(nil)

func NewWalletRepository(cfg *viper.Viper) (*WalletRepository, error) {
	path, err := resolvePath(cfg, WalletPathKey, walletFileName)
	if err != nil {
		return nil, err
	}

	return &WalletRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *WalletRepository) Path() string {
	return r.path
}

func (r *WalletRepository) Load(ctx context.Context) (domain.WalletState, error) {
	if err := ctx.Err(); err != nil {
		return domain.WalletState{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.WalletState{}, err
	}

	return fromWalletSchema(file), nil
}

func (r *WalletRepository) Update(ctx context.Context, fn func(state *domain.WalletState) error) (domain.WalletState, error) {
	if err := ctx.Err(); err != nil {
		return domain.WalletState{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.WalletState{}, err
	}

	state := fromWalletSchema(file)
	if err := fn(&state); err != nil {
		return domain.WalletState{}, err
	}

	if err := ctx.Err(); err != nil {
		return domain.WalletState{}, err
	}

	if err := writeTOMLFile(r.path, toWalletSchema(state)); err != nil {
		return domain.WalletState{}, err
	}

	return state, nil
}

func (r *WalletRepository) readSchema() (walletFileSchema, error) {
	var file walletFileSchema
	if err := readTOMLFile(r.path, &file); err != nil {
		return walletFileSchema{}, err
	}
	if err := checkVersion("wallet", file.Version, currentWalletSchemaVersion); err != nil {
		return walletFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toWalletSchema(state domain.WalletState) walletFileSchema {
	balances := make(map[string]int64, len(state.Balances))
	for tokenType, balance := range state.Balances {
		balances[string(tokenType)] = balance
	}

	tokens := make([]tokenSchema, 0, len(state.Tokens))
	for _, token := range state.Tokens {
		tokens = append(tokens, tokenSchema{
			ID:          token.ID,
			Seq:         token.Seq,
			Type:        string(token.Type),
			Amount:      token.Amount,
			Source:      token.Source,
			Description: token.Description,
			Timestamp:   formatTime(token.Timestamp),
			Metadata:    token.Metadata,
		})
	}

	history := make([]transactionSchema, 0, len(state.History))
	for _, tx := range state.History {
		history = append(history, transactionSchema{
			TokenID:     tx.TokenID,
			Kind:        string(tx.Kind),
			TokenType:   string(tx.TokenType),
			Amount:      tx.Amount,
			Source:      tx.Source,
			Description: tx.Description,
			Timestamp:   formatTime(tx.Timestamp),
			Balance:     tx.Balance,
		})
	}

	file := walletFileSchema{
		LastUpdated: formatTime(state.LastUpdated),
		Balances:    balances,
		Tokens:      tokens,
		History:     history,
	}
	file.applyDefaults()
	return file
}

func fromWalletSchema(file walletFileSchema) domain.WalletState {
	state := domain.WalletState{
		Balances:    domain.ZeroBalances(),
		LastUpdated: parseTime(file.LastUpdated),
	}
	for tokenType, balance := range file.Balances {
		state.Balances[domain.TokenType(tokenType)] = balance
	}

	for _, token := range file.Tokens {
		state.Tokens = append(state.Tokens, domain.Token{
			ID:          token.ID,
			Seq:         token.Seq,
			Type:        domain.TokenType(token.Type),
			Amount:      token.Amount,
			Source:      token.Source,
			Description: token.Description,
			Timestamp:   parseTime(token.Timestamp),
			Metadata:    token.Metadata,
		})
	}

	for _, tx := range file.History {
		state.History = append(state.History, domain.Transaction{
			TokenID:     tx.TokenID,
			Kind:        domain.TransactionKind(tx.Kind),
			TokenType:   domain.TokenType(tx.TokenType),
			Amount:      tx.Amount,
			Source:      tx.Source,
			Description: tx.Description,
			Timestamp:   parseTime(tx.Timestamp),
			Balance:     tx.Balance,
		})
	}

	state.Normalize()
	return state
}
