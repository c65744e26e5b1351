package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Lookup resolves one configuration variable by its environment name.
type Lookup func(name string) (string, bool)

// Env looks variables up in the process environment.
func Env() Lookup { return os.LookupEnv }

// Map looks variables up in a fixed map keyed by environment name.
func Map(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Chain returns the first hit across lookups, in order.
func Chain(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(name); ok {
				return v, true
			}
		}
		return "", false
	}
}

// DotEnv reads a .env file without touching the process environment.
// A missing file yields an empty lookup.
func DotEnv(path string) (Lookup, error) {
	if path == "" {
		return Map(nil), nil
	}
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Map(nil), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Map(m), nil
}

// File reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. Keys are variable names in any case,
// e.g. `server_port: 8443` provides SERVER_PORT.
func File(path string) (Lookup, error) {
	if path == "" {
		return nil, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", ext)
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		m[strings.ToUpper(k)] = stringify(v)
	}
	return Map(m), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ",")
	case float64:
		// JSON numbers decode as float64; keep integers integral.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// Load resolves the configuration from the process environment, then envFile
// (optional, may be missing), then configFile (optional, must exist if set).
func Load(envFile, configFile string) (*Config, error) {
	dot, err := DotEnv(envFile)
	if err != nil {
		return nil, err
	}
	lookups := []Lookup{Env(), dot}
	if configFile != "" {
		f, err := File(configFile)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, f)
	}
	return Parse(Chain(lookups...))
}
