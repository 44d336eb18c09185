// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/units"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/hyperprog/codec"
	"github.com/ava-labs/hyperprog/trace"
)

const (
	ValidatedMode   = "validated"
	UnvalidatedMode = "unvalidated"

	MemoryBackend = "memory"
	FileBackend   = "file"
	PebbleBackend = "pebble"
)

// Well known program identities. They are only defaults: every program ID
// can be overridden per deployment.
var (
	DefaultSystemProgramID   = codec.MustParseAddress("11111111111111111111111111111111")
	DefaultTokenProgramID    = codec.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	DefaultCounterProgramID  = codec.MustParseAddress("2P91fD3JsH92u9Eid6jxdXuZoSL3ACettSRWpFGDzWpy")
	DefaultTransferProgramID = codec.MustParseAddress("3EH6Rgvpu49q8XsABjaZGoKUbLMgdeiQS9RctBMn9z7u")

	DefaultAssociatedTokenProgramID = codec.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

var (
	ErrInvalidMode        = errors.New("invalid counter mode")
	ErrInvalidWidth       = errors.New("invalid counter width")
	ErrInvalidBackend     = errors.New("invalid storage backend")
	ErrMissingPath        = errors.New("storage backend requires a path")
	ErrInvalidDepth       = errors.New("max invoke depth must be positive")
	ErrInvalidParallelism = errors.New("parallelism must be positive")
	ErrDuplicateProgramID = errors.New("duplicate program id")

	ErrMissingListenAddress = errors.New("api requires a listen address")
)

type StorageConfig struct {
	Backend   string `json:"backend"`
	Path      string `json:"path"`
	Sync      bool   `json:"sync"`
	CacheSize int    `json:"cacheSize"`
}

type APIConfig struct {
	Enabled         bool          `json:"enabled"`
	ListenAddress   string        `json:"listenAddress"`
	AllowedOrigins  []string      `json:"allowedOrigins"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

type Config struct {
	LogLevel logging.Level `json:"logLevel"`
	// When set, logs are also written as JSON to rotated files in this
	// directory.
	LogDirectory  string `json:"logDirectory"`
	LogMaxSize    int    `json:"logMaxSize"` // megabytes
	LogMaxBackups int    `json:"logMaxBackups"`
	LogMaxAge     int    `json:"logMaxAge"` // days

	// Counter
	CounterMode  string `json:"counterMode"`
	CounterWidth uint8  `json:"counterWidth"`

	// Program identities
	CounterProgramID  codec.Address `json:"counterProgramID"`
	TransferProgramID codec.Address `json:"transferProgramID"`
	TokenProgramID    codec.Address `json:"tokenProgramID"`
	SystemProgramID   codec.Address `json:"systemProgramID"`

	AssociatedTokenProgramID codec.Address `json:"associatedTokenProgramID"`

	// Host
	MaxInvokeDepth int           `json:"maxInvokeDepth"`
	Parallelism    int           `json:"parallelism"`
	Storage        StorageConfig `json:"storage"`
	Trace          trace.Config  `json:"trace"`
	API            APIConfig     `json:"api"`
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:          logging.Info,
		LogMaxSize:        8,
		LogMaxBackups:     4,
		LogMaxAge:         14,
		CounterMode:       ValidatedMode,
		CounterWidth:      8,
		CounterProgramID:  DefaultCounterProgramID,
		TransferProgramID: DefaultTransferProgramID,
		TokenProgramID:    DefaultTokenProgramID,
		SystemProgramID:   DefaultSystemProgramID,

		AssociatedTokenProgramID: DefaultAssociatedTokenProgramID,

		MaxInvokeDepth:    4,
		Parallelism:       4,
		Storage: StorageConfig{
			Backend:   MemoryBackend,
			CacheSize: 16 * units.MiB,
		},
		Trace: trace.NewDefaultConfig(),
		API: APIConfig{
			ListenAddress:   "127.0.0.1:9650",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// New fills defaults and then overrides them with the JSON in [b].
func New(b []byte) (*Config, error) {
	c := NewDefaultConfig()
	if len(b) > 0 {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config at [path].
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(b)
}

func (c *Config) Validate() error {
	switch c.CounterMode {
	case ValidatedMode, UnvalidatedMode:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.CounterMode)
	}
	if c.CounterWidth != 4 && c.CounterWidth != 8 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, c.CounterWidth)
	}
	switch c.Storage.Backend {
	case MemoryBackend:
	case FileBackend, PebbleBackend:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: %s", ErrMissingPath, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Storage.Backend)
	}
	if c.MaxInvokeDepth < 1 {
		return ErrInvalidDepth
	}
	if c.Parallelism < 1 {
		return ErrInvalidParallelism
	}
	if c.API.Enabled && c.API.ListenAddress == "" {
		return ErrMissingListenAddress
	}

	ids := []codec.Address{
		c.CounterProgramID,
		c.TransferProgramID,
		c.TokenProgramID,
		c.SystemProgramID,
		c.AssociatedTokenProgramID,
	}
	seen := make(map[codec.Address]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateProgramID, id)
		}
		seen[id] = struct{}{}
	}
	return c.Trace.Validate()
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() logging.Logger {
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(c.LogLevel, os.Stdout, logging.Plain.ConsoleEncoder()),
	}
	if c.LogDirectory != "" {
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(c.LogDirectory, "hyperprog.log"),
			MaxSize:    c.LogMaxSize,
			MaxAge:     c.LogMaxAge,
			MaxBackups: c.LogMaxBackups,
			Compress:   true,
		}
		cores = append(cores, logging.NewWrappedCore(c.LogLevel, rw, logging.JSON.FileEncoder()))
	}
	return logging.NewLogger("hyperprog", cores...)
}
