package app

import (
	"context"
	"encoding/json"
	"fmt"

	"dashboard/internal/domain"
)

// loadJSON decodes the value under key into v. It reports false when the
// key is absent. A decode failure is wrapped with domain.ErrStorage.
func loadJSON(ctx context.Context, kv domain.KVStore, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w: %v", key, domain.ErrStorage, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv domain.KVStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
