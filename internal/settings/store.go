package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
)

// Settings maps a company id to its visibility toggle.
type Settings map[int64]model.CompanySetting

func (s Settings) clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Store persists the whole settings map. Implementations always read and
// write the full map.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// MemoryStore keeps settings for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	data Settings
}

func NewMemoryStore(initial Settings) *MemoryStore {
	if initial == nil {
		initial = Settings{}
	}
	return &MemoryStore{data: initial.clone()}
}

func (m *MemoryStore) Load(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = s.clone()
	return nil
}

// FileStore keeps settings in a JSON file keyed by company id.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	return decode(raw)
}

func (f *FileStore) Save(ctx context.Context, s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := encode(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// RedisKey holds the JSON blob written by RedisStore.
const RedisKey = "cartelera:company_settings"

// RedisStore keeps settings as one JSON value so every server instance
// sees the same toggles.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context) (Settings, error) {
	raw, err := r.client.Get(ctx, RedisKey)
	if errors.Is(err, redis.ErrNil) {
		return Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings from redis: %w", err)
	}
	return decode([]byte(raw))
}

func (r *RedisStore) Save(ctx context.Context, s Settings) error {
	raw, err := encode(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, RedisKey, raw, 0)
}

func encode(s Settings) ([]byte, error) {
	out := make(map[string]model.CompanySetting, len(s))
	for id, v := range s {
		out[strconv.FormatInt(id, 10)] = v
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (Settings, error) {
	var in map[string]model.CompanySetting
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	out := make(Settings, len(in))
	for k, v := range in {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode settings: bad company id %q", k)
		}
		out[id] = v
	}
	return out, nil
}
