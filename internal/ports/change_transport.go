package ports

import (
	"context"

	"github.com/bnema/tokenwallet/internal/domain"
)

// ChangeTransport carries change notices between execution contexts that
// share a persisted store. Listen delivers notices until stop is called
// or ctx is done; stop is safe to call more than once.
type ChangeTransport interface {
	Notify(ctx context.Context, notice domain.ChangeNotice) error
	Listen(ctx context.Context, fn func(domain.ChangeNotice)) (stop func(), err error)
}
