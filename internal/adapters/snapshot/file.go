package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

// FileSource reads <Dir>/<class>.json, for offline sync against an
// exported server snapshot.
type FileSource struct {
	Dir string
}

var _ ports.SnapshotSource = FileSource{}

func (s FileSource) Fetch(ctx context.Context, class domain.CollectionClass) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, string(class)+".json")
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s snapshot %s not found: %w", class, path, err)
		}
		return nil, fmt.Errorf("stat %s snapshot: %w", class, err)
	}
	if info.Size() > maxSnapshotBytes {
		return nil, fmt.Errorf("read %s snapshot: %w", class, ErrSnapshotTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", class, err)
	}
	return decodeCollection(data)
}
