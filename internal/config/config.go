// Package config loads process configuration from the environment, with an
// optional .env file for local development. The hashing costs configured here
// are handed to the credential hasher at construction; nothing in this module
// mutates process-wide state.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/marosten/authcore/internal/hashing"
	"github.com/marosten/authcore/internal/store"
)

// Config holds everything the binary needs at startup.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// Credential hasher cost parameters.
	TimeCost    uint32
	MemoryCost  uint32 // KiB
	Parallelism uint8
	HashLen     uint32
	SaltLen     uint32

	// Session policy.
	DefaultTTLHours int

	// Outbound notification settings. Email is optional; when the token is
	// empty no notifications are sent.
	EmailServerToken string
	EmailFrom        string
}

// Load reads configuration from the environment, preferring an .env file when
// one exists, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{
		Port:     getEnv("AUTHCORE_PORT", "8080"),
		DBPath:   getEnv("AUTHCORE_DB_PATH", "authcore.db"),
		LogLevel: getEnv("AUTHCORE_LOG_LEVEL", "info"),

		TimeCost:    uint32(getEnvAsInt("AUTHCORE_HASH_TIME_COST", int(hashing.DefaultTime))),
		MemoryCost:  uint32(getEnvAsInt("AUTHCORE_HASH_MEMORY_COST", int(hashing.DefaultMemory))),
		Parallelism: uint8(getEnvAsInt("AUTHCORE_HASH_PARALLELISM", int(hashing.DefaultThreads))),
		HashLen:     uint32(getEnvAsInt("AUTHCORE_HASH_LEN", int(hashing.DefaultKeyLen))),
		SaltLen:     uint32(getEnvAsInt("AUTHCORE_HASH_SALT_LEN", int(hashing.DefaultSaltLen))),

		DefaultTTLHours: getEnvAsInt("AUTHCORE_SESSION_TTL_HOURS", store.DefaultTTLHours),

		EmailServerToken: getEnv("AUTHCORE_EMAIL_SERVER_TOKEN", ""),
		EmailFrom:        getEnv("AUTHCORE_EMAIL_FROM", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core could not run under.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: AUTHCORE_DB_PATH must not be empty")
	}
	if c.DefaultTTLHours < 0 {
		return fmt.Errorf("config: AUTHCORE_SESSION_TTL_HOURS must not be negative")
	}
	// Delegate cost-parameter checks to the hasher so the rules live in one
	// place.
	if _, err := hashing.New(c.HasherParams()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// HasherParams maps the configured costs onto the hasher's parameter object.
func (c *Config) HasherParams() hashing.Params {
	return hashing.Params{
		Time:    c.TimeCost,
		Memory:  c.MemoryCost,
		Threads: c.Parallelism,
		KeyLen:  c.HashLen,
		SaltLen: c.SaltLen,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
