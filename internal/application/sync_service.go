package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

// SyncPlan is the outcome of one reconciliation pass, waiting for the
// caller to pick a strategy.
type SyncPlan struct {
	Class     domain.CollectionClass
	Cached    []domain.Entity
	Server    []domain.Entity
	Conflicts []domain.SyncConflict
	FetchedAt time.Time
}

// SyncService connects the engine to a collaborator's cache and a server
// snapshot source. Plans are never applied without an explicit strategy.
type SyncService struct {
	cache  ports.CollectionRepository
	source ports.SnapshotSource
	engine SyncEngine
	clock  ports.Clock
}

func NewSyncService(cache ports.CollectionRepository, source ports.SnapshotSource, clock ports.Clock) *SyncService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SyncService{cache: cache, source: source, clock: clock}
}

func (s *SyncService) Plan(ctx context.Context, class domain.CollectionClass) (SyncPlan, error) {
	if err := class.Validate(); err != nil {
		return SyncPlan{}, err
	}

	cached, err := s.cache.Load(ctx, class)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("load %s cache: %w", class, err)
	}
	server, err := s.source.Fetch(ctx, class)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("fetch %s snapshot: %w", class, err)
	}

	conflicts, err := s.engine.Diff(cached, server)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("diff %s: %w", class, err)
	}

	return SyncPlan{
		Class:     class,
		Cached:    cached,
		Server:    server,
		Conflicts: conflicts,
		FetchedAt: s.clock.Now(),
	}, nil
}

// Apply resolves plan with strategy and persists the merged collection as
// the new cache.
func (s *SyncService) Apply(ctx context.Context, plan SyncPlan, strategy domain.Strategy) (domain.Resolution, error) {
	resolution, err := s.engine.Resolve(plan.Cached, plan.Server, plan.Conflicts, strategy)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve %s: %w", plan.Class, err)
	}

	if err := s.cache.Save(ctx, plan.Class, resolution.Merged); err != nil {
		return domain.Resolution{}, fmt.Errorf("save %s cache: %w", plan.Class, err)
	}
	return resolution, nil
}
