// Package config loads zodo settings from .zodo.yaml and ZODO_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Store    StoreConfig
	Neo4j    Neo4jConfig
	Postgres PostgresConfig
	HTTP     HTTPConfig
	Log      LogConfig
	RootName string
}

// StoreConfig selects the persistence backend and its slot.
type StoreConfig struct {
	Backend string
	Key     string
	Path    string
	Timeout time.Duration
}

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

type PostgresConfig struct {
	DSN string
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

// Backends accepted by store.backend.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Key:     "zodo",
			Path:    defaultStorePath(),
			Timeout: 5 * time.Second,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Password: "password",
		},
		HTTP:     HTTPConfig{Addr: "0.0.0.0:8080"},
		Log:      LogConfig{Level: "info", Format: "text"},
		RootName: "root",
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".zodo", "tree.json")
	}
	return filepath.Join(home, ".zodo", "tree.json")
}

// Load reads configuration. An explicit file path must exist; otherwise
// .zodo.yaml is looked up in the working directory and then $HOME, and a
// missing file falls back to defaults. ZODO_* variables override both.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".zodo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("ZODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.key", cfg.Store.Key)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.timeout", cfg.Store.Timeout)
	v.SetDefault("neo4j.uri", cfg.Neo4j.URI)
	v.SetDefault("neo4j.username", cfg.Neo4j.Username)
	v.SetDefault("neo4j.password", cfg.Neo4j.Password)
	v.SetDefault("postgres.dsn", cfg.Postgres.DSN)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("tree.root_name", cfg.RootName)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.Store.Backend = strings.ToLower(v.GetString("store.backend"))
	cfg.Store.Key = v.GetString("store.key")
	cfg.Store.Path = v.GetString("store.path")
	cfg.Store.Timeout = v.GetDuration("store.timeout")
	cfg.Neo4j.URI = v.GetString("neo4j.uri")
	cfg.Neo4j.Username = v.GetString("neo4j.username")
	cfg.Neo4j.Password = v.GetString("neo4j.password")
	cfg.Postgres.DSN = v.GetString("postgres.dsn")
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.RootName = v.GetString("tree.root_name")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the file backend")
		}
	case BackendMemory:
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is required for the neo4j backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (want file, memory, neo4j or postgres)", c.Store.Backend)
	}
	if c.Store.Key == "" {
		return fmt.Errorf("store.key must not be empty")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	return nil
}
