// Package preferences is a small key/value store for client settings that
// outlive a session, such as the last selected category filter.
package preferences

import "context"

// Repository reads and writes string settings. Get returns ("", nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}

// Keys used by the client.
const (
	KeyFilter = "filter"
)
