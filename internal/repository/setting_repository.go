package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Setting mirrors the 'settings' key/value table.  Storefront knobs such
// as the display currency live here rather than in env vars so the back
// office can change them at runtime.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrSettingNotFound is returned when a setting key has no row and no
// registered default.
var ErrSettingNotFound = errors.New("setting not found")

// settingDefaults are applied when a key is absent.  EnsureDefaults
// persists them on startup so the back office always sees a full set.
var settingDefaults = map[string]string{
	"currency":         "SAR",
	"site_name":        "Event Seat Booking",
	"support_phone":    "",
	"telegram_enabled": "false",
}

type SettingRepo struct{ DB *sql.DB }

func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{DB: db} }

// EnsureDefaults inserts every default key that does not yet exist.
// Existing values are never overwritten.
func (r *SettingRepo) EnsureDefaults(ctx context.Context) error {
	for k, v := range settingDefaults {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO settings (`key`, `value`) VALUES (?,?)", k, v); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value for a key, falling back to the registered default
// when the row is missing.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT `value` FROM settings WHERE `key`=? LIMIT 1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if def, ok := settingDefaults[key]; ok {
			return def, nil
		}
		return "", ErrSettingNotFound
	}
	return v, err
}

// Set upserts one setting.
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO settings (`key`, `value`) VALUES (?,?) ON DUPLICATE KEY UPDATE `value`=VALUES(`value`)",
		key, value)
	return err
}

// All returns every stored setting, with unset defaults merged in.
func (r *SettingRepo) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(settingDefaults))
	for k, v := range settingDefaults {
		out[k] = v
	}
	rows, err := r.DB.QueryContext(ctx, "SELECT `key`, `value` FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SettingsCache is a small read-through cache in front of SettingRepo.
// A nil Redis client disables caching and every read hits the database.
type SettingsCache struct {
	repo *SettingRepo
	rdb  *redis.Client
	ttl  time.Duration
}

func NewSettingsCache(repo *SettingRepo, rdb *redis.Client, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsCache{repo: repo, rdb: rdb, ttl: ttl}
}

func settingKey(key string) string { return "setting:" + key }

// Get reads a setting through the cache.  Redis failures fall back to the
// database silently.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, error) {
	if c.rdb != nil {
		if v, err := c.rdb.Get(ctx, settingKey(key)).Result(); err == nil {
			return v, nil
		}
	}
	v, err := c.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if c.rdb != nil {
		c.rdb.Set(ctx, settingKey(key), v, c.ttl)
	}
	return v, nil
}

// Set writes through to the database and refreshes the cached entry.
func (c *SettingsCache) Set(ctx context.Context, key, value string) error {
	if err := c.repo.Set(ctx, key, value); err != nil {
		return err
	}
	if c.rdb != nil {
		c.rdb.Set(ctx, settingKey(key), value, c.ttl)
	}
	return nil
}

// Invalidate drops one cached setting.
func (c *SettingsCache) Invalidate(ctx context.Context, key string) {
	if c.rdb != nil {
		c.rdb.Del(ctx, settingKey(key))
	}
}
