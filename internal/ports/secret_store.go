package ports

import "context"

// SecretStore keeps credential digests keyed by a user's secret ref.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
