package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SettingsKey is the Redis key holding the JSON-encoded settings record.
const SettingsKey = "settings:search_protection"

// Store persists the settings record in Redis as a single JSON blob.
// Saves replace the whole record atomically, so concurrent loads always
// see either the old or the new snapshot, never a mix.
type Store struct {
	client *redis.Client
}

// NewStore creates a settings store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Load fetches the current settings snapshot. If nothing has been saved
// yet, the defaults are returned.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	data, err := s.client.Get(ctx, SettingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}

	var cfg Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("settings: decode: %w", err)
	}
	return cfg, nil
}

// Save replaces the stored settings record wholesale. No TTL: settings
// live until the next save or an explicit uninstall.
func (s *Store) Save(ctx context.Context, cfg Settings) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.client.Set(ctx, SettingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

// Delete removes the stored record, reverting subsequent loads to the
// defaults. Used by the uninstall path.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, SettingsKey).Err(); err != nil {
		return fmt.Errorf("settings: delete: %w", err)
	}
	return nil
}
