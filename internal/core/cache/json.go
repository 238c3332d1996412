package cache

import (
	"context"
	"encoding/json"
	"time"
)

// LoadJSON caches the JSON form of load's result under key. A cached payload
// that no longer decodes into T is dropped and load is called directly.
func LoadJSON[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	raw, err := s.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err == nil {
		return out, nil
	}
	_ = s.Invalidate(ctx, key)
	return load(ctx)
}

// StoreJSON writes v under key, replacing whatever is cached.
func StoreJSON[T any](ctx context.Context, s Store, key string, ttl time.Duration, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}
