package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "HEALTHQR_"

// envSectionSep separates nested sections in environment variable names.
const envSectionSep = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	loaded    bool
}

// Option configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied after file and environment.
// Keys use dotted paths ("log.level").
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// FilePath returns the configured file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads every configured source and unmarshals into target.
// Fields of target that no source mentions keep their current values,
// so callers pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return err
	}

	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return err
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.loaded = true
	return nil
}

// Reload discards loaded values and runs Load again.
func (l *Loader) Reload(target any) error {
	l.k = koanf.New(".")
	l.loaded = false
	return l.Load(target)
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads configuration from environment variables carrying the
// loader's prefix.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return envKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// envKey maps HEALTHQR_STORAGE__DATA_DIR to storage.data_dir.
func envKey(prefix, name string) string {
	name = strings.TrimPrefix(name, prefix)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, envSectionSep, ".")
}

// LoadMap loads configuration from a map of dotted keys.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the loaded configuration into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Get returns a raw value by dotted key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns a string value.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt returns an int value.
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool returns a bool value.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// IsLoaded reports whether Load has completed.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// Keys returns all loaded keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}
