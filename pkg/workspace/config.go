package workspace

import (
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gpmworks/gpm/pkg/errors"
)

// Well-known configuration keys.
const (
	KeyMainRepo   = "mainRepo"
	KeyMainName   = "mainName"
	KeyMainBranch = "mainBranch"
	KeySelection  = "selection"
)

// Config is the key-value configuration persisted in the workspace's
// gpm.yaml. Every operation rereads the file so that concurrent edits by
// other commands are never lost to a stale copy.
type Config struct {
	mu   sync.RWMutex
	path string
}

// NewConfig returns the configuration stored at path.
func NewConfig(path string) *Config {
	return &Config{path: path}
}

// Path returns the configuration file.
func (c *Config) Path() string { return c.path }

func (c *Config) load() (map[string]any, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "failed to read %s", c.path)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to parse %s", c.path)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func (c *Config) save(values map[string]any) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to encode configuration")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", c.path)
	}
	return nil
}

// Get returns the value stored under key, or nil.
func (c *Config) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values, err := c.load()
	if err != nil {
		return nil, err
	}
	return values[key], nil
}

// String returns the value under key as a string. A missing or non-string
// value yields "".
func (c *Config) String(key string) (string, error) {
	v, err := c.Get(key)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// RequiredString is String for keys that must be set.
func (c *Config) RequiredString(key string) (string, error) {
	s, err := c.String(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errors.New(errors.ErrCodeMissingData,
			"missing required configuration property: %s. You can set it using 'gpm config set %s VALUE'", key, key)
	}
	return s, nil
}

// Strings returns a list value. Non-string items are dropped.
func (c *Config) Strings(key string) ([]string, error) {
	v, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Set stores value under key.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	values, err := c.load()
	if err != nil {
		return err
	}
	values[key] = value
	return c.save(values)
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Config) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	values, err := c.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return c.save(values)
}

// All returns every key and value, keys sorted.
func (c *Config) All() ([]string, map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, values, nil
}
