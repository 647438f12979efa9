// Package config loads typed configuration structs from the process
// environment. Each config type is parsed once and cached, so different
// parts of the application can ask for the same config without racing
// or re-reading the environment.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("config: nil pointer")
	// ErrParse is returned when environment variables cannot be parsed
	// into the config struct.
	ErrParse = errors.New("config: failed to parse environment")
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // type name -> parsed config value
)

// Load parses environment variables into cfg based on `env` struct tags.
// The first call for a given type does the actual parsing; subsequent
// calls return the cached value. A .env file, if present, is loaded once
// before the first parse.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// Missing .env file is fine, real deployments use the environment.
		_ = godotenv.Load()
	})

	key := fmt.Sprintf("%T", *cfg)
	if v, ok := cache.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParse, err)
	}

	v, _ := cache.LoadOrStore(key, *cfg)
	*cfg = v.(T)
	return nil
}

// MustLoad is Load that panics on failure. Meant for configs the
// application cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load %T: %v", *cfg, err))
	}
}
