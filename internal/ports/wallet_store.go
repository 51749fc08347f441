package ports

import (
	"context"

	"github.com/bnema/tokenwallet/internal/domain"
)

// WalletStore persists the wallet state. Update runs fn against the
// freshest stored state and commits the result as one write; if fn
// returns an error nothing is written.
type WalletStore interface {
	Load(ctx context.Context) (domain.WalletState, error)
	Update(ctx context.Context, fn func(state *domain.WalletState) error) (domain.WalletState, error)
}
