package toml

import (
	"context"
	"path/filepath"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
)

const (
	CacheDirKey  = "cache.dir"
	cacheDirName = "cache"
)

// CollectionRepository keeps one TOML file per collection class under the
// cache directory.
type CollectionRepository struct {
	dir   string
	clock ports.Clock
}

var _ ports.CollectionRepository = (*CollectionRepository)(nil)

func NewCollectionRepository(cfg *viper.Viper, clock ports.Clock) (*CollectionRepository, error) {
	dir, err := resolvePath(cfg, CacheDirKey, cacheDirName)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &CollectionRepository{dir: dir, clock: clock}, nil
}

func (r *CollectionRepository) Load(ctx context.Context, class domain.CollectionClass) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}

	path := r.pathFor(class)
	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	var file collectionFileSchema
	if err := readTOMLFile(path, &file); err != nil {
		return nil, err
	}
	if err := checkVersion("collection", file.Version, currentCollectionSchemaVersion); err != nil {
		return nil, err
	}

	entities := make([]domain.Entity, 0, len(file.Entities))
	for _, entry := range file.Entities {
		entities = append(entities, fromEntitySchema(entry))
	}
	return entities, nil
}

func (r *CollectionRepository) Save(ctx context.Context, class domain.CollectionClass, entities []domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := class.Validate(); err != nil {
		return err
	}

	path := r.pathFor(class)
	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	file := collectionFileSchema{
		Class:    string(class),
		SavedAt:  formatTime(r.clock.Now()),
		Entities: make([]entitySchema, 0, len(entities)),
	}
	for _, entity := range entities {
		file.Entities = append(file.Entities, toEntitySchema(entity))
	}
	file.applyDefaults()

	return writeTOMLFile(path, file)
}

func (r *CollectionRepository) pathFor(class domain.CollectionClass) string {
	return filepath.Join(r.dir, string(class)+".toml")
}

func toEntitySchema(entity domain.Entity) entitySchema {
	return entitySchema{
		ID:         entity.ID,
		Name:       entity.Name,
		Version:    entity.Version,
		UpdatedAt:  formatTime(entity.UpdatedAt),
		Attributes: entity.Attributes,
	}
}

func fromEntitySchema(schema entitySchema) domain.Entity {
	return domain.Entity{
		ID:         schema.ID,
		Name:       schema.Name,
		Version:    schema.Version,
		UpdatedAt:  parseTime(schema.UpdatedAt),
		Attributes: schema.Attributes,
	}
}
