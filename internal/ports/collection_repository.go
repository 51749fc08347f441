package ports

import (
	"context"

	"github.com/bnema/tokenwallet/internal/domain"
)

// CollectionRepository is the collaborator-owned local cache of one
// entity collection per class.
type CollectionRepository interface {
	Load(ctx context.Context, class domain.CollectionClass) ([]domain.Entity, error)
	Save(ctx context.Context, class domain.CollectionClass, entities []domain.Entity) error
}

// SnapshotSource fetches the authoritative server collection.
type SnapshotSource interface {
	Fetch(ctx context.Context, class domain.CollectionClass) ([]domain.Entity, error)
}
