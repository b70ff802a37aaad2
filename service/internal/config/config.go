// Package config loads runtime settings for the ocean bot from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/ocean/engine"
)

// Environment variable names.
const (
	EnvLogLevel        = "OCEAN_LOG_LEVEL"
	EnvTorpedoRange    = "OCEAN_TORPEDO_RANGE"
	EnvStealthRange    = "OCEAN_STEALTH_RANGE"
	EnvStealthZeroMove = "OCEAN_STEALTH_ZERO_MOVE"
	EnvSeed            = "OCEAN_SEED"
	EnvFeedAddr        = "OCEAN_FEED_ADDR"
	EnvFeedSecret      = "OCEAN_FEED_SECRET"
)

// Config holds every tunable of a bot run.
type Config struct {
	LogLevel logrus.Level
	Masks    engine.MaskConfig
	Seed     uint64 // 0 picks a time-based seed

	// FeedAddr enables the websocket debug feed when non-empty.
	FeedAddr string
	// FeedSecret, when set, requires viewers to present an HS256 token.
	FeedSecret string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		LogLevel: logrus.InfoLevel,
		Masks:    engine.DefaultMaskConfig(),
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment and then parses it. Missing files are not an error;
// variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup function such as
// os.LookupEnv. Unset or empty variables keep their defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvLogLevel); ok {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := get(EnvTorpedoRange); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTorpedoRange, err)
		}
		cfg.Masks.TorpedoRange = n
	}
	if v, ok := get(EnvStealthRange); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvStealthRange, err)
		}
		cfg.Masks.StealthRange = n
	}
	if v, ok := get(EnvStealthZeroMove); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvStealthZeroMove, err)
		}
		cfg.Masks.StealthZeroMove = b
	}
	if v, ok := get(EnvSeed); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Seed = n
	}
	cfg.FeedAddr, _ = get(EnvFeedAddr)
	cfg.FeedSecret, _ = get(EnvFeedSecret)

	if err := cfg.Masks.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
