package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
)

const maxSnapshotBytes = 8 << 20

var ErrSnapshotTooLarge = errors.New("snapshot exceeds 8 MiB")

type entityJSON struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Version    string            `json:"version,omitempty"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type collectionJSON struct {
	Class    string       `json:"class,omitempty"`
	Entities []entityJSON `json:"entities"`
}

// decodeCollection accepts either a bare entity array or an object with
// an entities field.
func decodeCollection(data []byte) ([]domain.Entity, error) {
	trimmed := bytes.TrimSpace(data)
	var raw []entityJSON
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
	} else {
		var wrapped collectionJSON
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		raw = wrapped.Entities
	}

	entities := make([]domain.Entity, 0, len(raw))
	for _, item := range raw {
		entity := domain.Entity{
			ID:         item.ID,
			Name:       item.Name,
			Version:    item.Version,
			Attributes: item.Attributes,
		}
		if item.UpdatedAt != nil {
			entity.UpdatedAt = item.UpdatedAt.UTC()
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// EncodeCollection renders entities in the wrapped form read by the sources.
func EncodeCollection(class domain.CollectionClass, entities []domain.Entity) ([]byte, error) {
	payload := collectionJSON{Class: string(class), Entities: make([]entityJSON, 0, len(entities))}
	for _, entity := range entities {
		item := entityJSON{
			ID:         entity.ID,
			Name:       entity.Name,
			Version:    entity.Version,
			Attributes: entity.Attributes,
		}
		if !entity.UpdatedAt.IsZero() {
			updatedAt := entity.UpdatedAt.UTC()
			item.UpdatedAt = &updatedAt
		}
		payload.Entities = append(payload.Entities, item)
	}
	return json.MarshalIndent(payload, "", "  ")
}
