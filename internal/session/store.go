package session

import (
	"context"
	"encoding/json"
)

// Store holds loosely-typed per-session values keyed by session id and
// value name. Values round-trip through JSON so both backends hand the
// sanitizers the same raw shape; the sanitizers own imposing structure.
type Store interface {
	Get(ctx context.Context, sid, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, sid, key string, value any) error
	Delete(ctx context.Context, sid, key string) error
	Clear(ctx context.Context, sid string) error
	Ping(ctx context.Context) error
}
