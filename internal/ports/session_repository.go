package ports

import (
	"context"

	"github.com/bnema/tokenwallet/internal/domain"
)

type SessionRepository interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
	LastBonusDay(ctx context.Context) (string, error)
	SetLastBonusDay(ctx context.Context, day string) error
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, user domain.User) error
}
