package domain

import (
	"fmt"
	"strings"
	"time"
)

// Entity is one element of a synchronized collection, keyed by ID.
type Entity struct {
	ID         string
	Name       string
	Version    string
	UpdatedAt  time.Time
	Attributes map[string]string
}

func (e Entity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing id (name %q)", ErrInvalidEntity, e.Name)
	}
	return nil
}

// SameContent reports whether both sides carry the same version and update time.
func (e Entity) SameContent(other Entity) bool {
	return e.Version == other.Version && e.UpdatedAt.Equal(other.UpdatedAt)
}

type ConflictType string

const (
	ConflictAdded    ConflictType = "added"
	ConflictDeleted  ConflictType = "deleted"
	ConflictModified ConflictType = "modified"
)

type SyncConflict struct {
	EntityID   string
	EntityName string
	Type       ConflictType
	Cached     *Entity
	Server     *Entity
}

type Strategy string

const (
	StrategyServer Strategy = "server"
	StrategyMerge  Strategy = "merge"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyServer:
		return StrategyServer, nil
	case StrategyMerge:
		return StrategyMerge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, raw)
	}
}

// ResolutionRule names how one conflict was settled.
type ResolutionRule string

const (
	RuleAdoptedServer  ResolutionRule = "adopted_server"
	RuleDroppedLocal   ResolutionRule = "dropped_local"
	RuleKeptLocal      ResolutionRule = "kept_local"
	RuleTookServer     ResolutionRule = "took_server"
	RuleTookLocalNewer ResolutionRule = "took_local_newer"
)

type Resolution struct {
	Strategy Strategy
	Merged   []Entity
	Counts   map[ResolutionRule]int
}

// CollectionClass names a synchronized entity collection (e.g. "repos").
type CollectionClass string

func (c CollectionClass) Validate() error {
	trimmed := strings.TrimSpace(string(c))
	if trimmed == "" {
		return fmt.Errorf("collection class is required")
	}
	if strings.ContainsAny(trimmed, `/\`) || strings.HasPrefix(trimmed, ".") {
		return fmt.Errorf("invalid collection class %q", c)
	}
	return nil
}
