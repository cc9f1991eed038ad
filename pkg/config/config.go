// Package config loads the Arbor service configuration from a TOML file.
//
// All fields have working defaults, so the server runs with no config
// file at all; a file only overrides what it names.
//
// Example:
//
//	listen = ":8080"
//
//	[storage]
//	backend = "file"
//	data_dir = "/var/lib/arbor"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[layout]
//	direction = "top-down"
//	spacing_x = 200.0
//	spacing_y = 150.0
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/arbormap/arbor/pkg/layout"
)

// Storage backends.
const (
	StorageFile  = "file"
	StorageMongo = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`

	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Layout  LayoutConfig  `toml:"layout"`
}

// StorageConfig selects and configures the tree persistence backend.
type StorageConfig struct {
	// Backend is "file" (default) or "mongo".
	Backend string `toml:"backend"`

	// DataDir is the directory for file-backed trees and autosave.
	// Empty means the platform default under the user's home.
	DataDir string `toml:"data_dir"`

	// Autosave persists the live tree to disk after each mutation.
	Autosave bool `toml:"autosave"`

	// MongoURI and MongoDatabase configure the mongo backend.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects and configures the layout/artifact cache.
type CacheConfig struct {
	// Backend is "file" (default), "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the directory for the file backend. Empty means the
	// platform cache directory.
	Dir string `toml:"dir"`

	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// LayoutConfig carries the default layout parameters applied when a
// request leaves them unset.
type LayoutConfig struct {
	Direction string  `toml:"direction"`
	SpacingX  float64 `toml:"spacing_x"`
	SpacingY  float64 `toml:"spacing_y"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Listen: ":8080",
		Storage: StorageConfig{
			Backend:       StorageFile,
			Autosave:      true,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "arbor",
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
		},
		Layout: LayoutConfig{
			Direction: layout.DirectionTopDown,
			SpacingX:  layout.DefaultSpacingX,
			SpacingY:  layout.DefaultSpacingY,
		},
	}
}

// Load reads the TOML file at path over the defaults.
// A missing file is not an error when path is empty; a named path that
// does not exist is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enum fields.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageMongo:
	default:
		return fmt.Errorf("invalid storage backend: %q (must be file or mongo)", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("invalid cache backend: %q (must be file, redis, or none)", c.Cache.Backend)
	}
	return layout.ValidateDirection(c.Layout.Direction)
}
