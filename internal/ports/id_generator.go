package ports

import "github.com/google/uuid"

// IDGenerator produces unique, generation-ordered identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator returns time-ordered UUIDv7 strings.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
