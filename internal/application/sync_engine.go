package application

import (
	"fmt"

	"github.com/bnema/tokenwallet/internal/domain"
)

// SyncEngine classifies differences between a cached collection and a
// server collection and merges them with a chosen strategy. It holds no
// state; disagreement between the sides is input, not an error.
type SyncEngine struct{}

// Diff returns deleted and modified conflicts in cached order, followed by
// added conflicts in server order.
func (SyncEngine) Diff(cached, server []domain.Entity) ([]domain.SyncConflict, error) {
	cachedByID, err := indexEntities("cached", cached)
	if err != nil {
		return nil, err
	}
	serverByID, err := indexEntities("server", server)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.SyncConflict, 0)
	for i := range cached {
		local := cached[i]
		remote, ok := serverByID[local.ID]
		if !ok {
			conflicts = append(conflicts, domain.SyncConflict{
				EntityID:   local.ID,
				EntityName: local.Name,
				Type:       domain.ConflictDeleted,
				Cached:     entityRef(local),
			})
			continue
		}
		if local.SameContent(remote) {
			continue
		}
		conflicts = append(conflicts, domain.SyncConflict{
			EntityID:   local.ID,
			EntityName: conflictName(local, remote),
			Type:       domain.ConflictModified,
			Cached:     entityRef(local),
			Server:     entityRef(remote),
		})
	}

	for i := range server {
		remote := server[i]
		if _, ok := cachedByID[remote.ID]; ok {
			continue
		}
		conflicts = append(conflicts, domain.SyncConflict{
			EntityID:   remote.ID,
			EntityName: remote.Name,
			Type:       domain.ConflictAdded,
			Server:     entityRef(remote),
		})
	}

	return conflicts, nil
}

// Resolve produces the merged collection for strategy.
//
// server: the result equals server.
// merge: added entities are adopted, local-only entities are kept and
// modified entities take the side with the later UpdatedAt, the server on
// ties. The result follows server order with local-only entities appended
// in cached order.
func (e SyncEngine) Resolve(cached, server []domain.Entity, conflicts []domain.SyncConflict, strategy domain.Strategy) (domain.Resolution, error) {
	if _, err := indexEntities("cached", cached); err != nil {
		return domain.Resolution{}, err
	}
	if _, err := indexEntities("server", server); err != nil {
		return domain.Resolution{}, err
	}

	resolution := domain.Resolution{Strategy: strategy, Counts: map[domain.ResolutionRule]int{}}

	switch strategy {
	case domain.StrategyServer:
		resolution.Merged = cloneEntities(server)
		for _, conflict := range conflicts {
			switch conflict.Type {
			case domain.ConflictAdded:
				resolution.Counts[domain.RuleAdoptedServer]++
			case domain.ConflictDeleted:
				resolution.Counts[domain.RuleDroppedLocal]++
			case domain.ConflictModified:
				resolution.Counts[domain.RuleTookServer]++
			}
		}
		return resolution, nil
	case domain.StrategyMerge:
		return e.merge(cached, server, conflicts, resolution)
	default:
		return domain.Resolution{}, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, strategy)
	}
}

func (SyncEngine) merge(cached, server []domain.Entity, conflicts []domain.SyncConflict, resolution domain.Resolution) (domain.Resolution, error) {
	byConflict := make(map[string]domain.SyncConflict, len(conflicts))
	for _, conflict := range conflicts {
		byConflict[conflict.EntityID] = conflict
	}

	merged := make([]domain.Entity, 0, len(server)+len(cached))
	for _, remote := range server {
		conflict, ok := byConflict[remote.ID]
		if !ok {
			merged = append(merged, cloneEntity(remote))
			continue
		}

		switch conflict.Type {
		case domain.ConflictAdded:
			merged = append(merged, cloneEntity(remote))
			resolution.Counts[domain.RuleAdoptedServer]++
		case domain.ConflictModified:
			if conflict.Cached != nil && conflict.Cached.UpdatedAt.After(remote.UpdatedAt) {
				merged = append(merged, cloneEntity(*conflict.Cached))
				resolution.Counts[domain.RuleTookLocalNewer]++
				continue
			}
			merged = append(merged, cloneEntity(remote))
			resolution.Counts[domain.RuleTookServer]++
		default:
			merged = append(merged, cloneEntity(remote))
		}
	}

	serverIDs := make(map[string]struct{}, len(server))
	for _, remote := range server {
		serverIDs[remote.ID] = struct{}{}
	}
	for _, local := range cached {
		if _, ok := serverIDs[local.ID]; ok {
			continue
		}
		merged = append(merged, cloneEntity(local))
		if conflict, ok := byConflict[local.ID]; ok && conflict.Type == domain.ConflictDeleted {
			resolution.Counts[domain.RuleKeptLocal]++
		}
	}

	resolution.Merged = merged
	return resolution, nil
}

func indexEntities(side string, entities []domain.Entity) (map[string]domain.Entity, error) {
	index := make(map[string]domain.Entity, len(entities))
	for i, entity := range entities {
		if err := entity.Validate(); err != nil {
			return nil, fmt.Errorf("%s entity %d: %w", side, i, err)
		}
		if _, ok := index[entity.ID]; ok {
			return nil, fmt.Errorf("%s entity %d: %w: duplicate id %q", side, i, domain.ErrInvalidEntity, entity.ID)
		}
		index[entity.ID] = entity
	}
	return index, nil
}

func conflictName(local, remote domain.Entity) string {
	if remote.Name != "" {
		return remote.Name
	}
	return local.Name
}

func entityRef(entity domain.Entity) *domain.Entity {
	clone := cloneEntity(entity)
	return &clone
}

func cloneEntities(entities []domain.Entity) []domain.Entity {
	clones := make([]domain.Entity, 0, len(entities))
	for _, entity := range entities {
		clones = append(clones, cloneEntity(entity))
	}
	return clones
}

func cloneEntity(entity domain.Entity) domain.Entity {
	if entity.Attributes != nil {
		attributes := make(map[string]string, len(entity.Attributes))
		for key, value := range entity.Attributes {
			attributes[key] = value
		}
		entity.Attributes = attributes
	}
	return entity
}
