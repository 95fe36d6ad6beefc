// Package config loads idgov runtime configuration from a TOML file and
// environment overrides.
//
// Example:
//
//	[ledger]
//	address = "127.0.0.1:7070"
//	dial_timeout = "5s"
//	rpc_timeout = "10s"
//
//	[journal]
//	backend = "all"
//	dir = "/var/lib/idgov/journal"
//	bolt_path = "/var/lib/idgov/journal.db"
//
//	[log]
//	level = "debug"
//
// Environment variables (IDGOV_LEDGER_ADDR, IDGOV_JOURNAL_BACKEND, ...) take
// precedence over the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Journal backends.
const (
	JournalNone    = "none"
	JournalLocalFS = "localfs"
	JournalBolt    = "bolt"
	JournalAll     = "all"
)

type Config struct {
	Ledger  LedgerConfig
	Journal JournalConfig
	Log     LogConfig
}

type LedgerConfig struct {
	Address     string        `env:"IDGOV_LEDGER_ADDR"`
	DialTimeout time.Duration `env:"IDGOV_LEDGER_DIAL_TIMEOUT"`
	RPCTimeout  time.Duration `env:"IDGOV_LEDGER_RPC_TIMEOUT"`
	MaxMsgBytes int           `env:"IDGOV_LEDGER_MAX_MSG_BYTES"`
}

type JournalConfig struct {
	Backend  string `env:"IDGOV_JOURNAL_BACKEND"`
	Dir      string `env:"IDGOV_JOURNAL_DIR"`
	BoltPath string `env:"IDGOV_JOURNAL_BOLT"`
}

type LogConfig struct {
	Level string `env:"IDGOV_LOG_LEVEL"`
	JSON  bool   `env:"IDGOV_LOG_JSON"`
}

func Default() Config {
	return Config{
		Ledger: LedgerConfig{
			Address:     "127.0.0.1:7070",
			DialTimeout: 5 * time.Second,
			RPCTimeout:  10 * time.Second,
			MaxMsgBytes: 4 << 20,
		},
		Journal: JournalConfig{Backend: JournalNone},
		Log:     LogConfig{Level: "info"},
	}
}

type fileConfig struct {
	Ledger struct {
		Address     string `toml:"address"`
		DialTimeout string `toml:"dial_timeout"`
		RPCTimeout  string `toml:"rpc_timeout"`
		MaxMsgBytes int    `toml:"max_msg_bytes"`
	} `toml:"ledger"`
	Journal struct {
		Backend  string `toml:"backend"`
		Dir      string `toml:"dir"`
		BoltPath string `toml:"bolt_path"`
	} `toml:"journal"`
	Log struct {
		Level string `toml:"level"`
		JSON  bool   `toml:"json"`
	} `toml:"log"`
}

// Load returns Default overlaid with the file at path (when non-empty) and
// then the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays the keys defined in the TOML file at path onto base.
// Unknown keys are an error.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("ledger", "address") {
		cfg.Ledger.Address = strings.TrimSpace(raw.Ledger.Address)
	}
	if meta.IsDefined("ledger", "dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Ledger.DialTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("config: parse ledger.dial_timeout: %w", err)
		}
		cfg.Ledger.DialTimeout = d
	}
	if meta.IsDefined("ledger", "rpc_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Ledger.RPCTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("config: parse ledger.rpc_timeout: %w", err)
		}
		cfg.Ledger.RPCTimeout = d
	}
	if meta.IsDefined("ledger", "max_msg_bytes") {
		cfg.Ledger.MaxMsgBytes = raw.Ledger.MaxMsgBytes
	}
	if meta.IsDefined("journal", "backend") {
		cfg.Journal.Backend = strings.TrimSpace(raw.Journal.Backend)
	}
	if meta.IsDefined("journal", "dir") {
		cfg.Journal.Dir = strings.TrimSpace(raw.Journal.Dir)
	}
	if meta.IsDefined("journal", "bolt_path") {
		cfg.Journal.BoltPath = strings.TrimSpace(raw.Journal.BoltPath)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any IDGOV_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Ledger.Address) == "" {
		return errors.New("config: ledger.address is required")
	}
	if c.Ledger.DialTimeout < 0 || c.Ledger.RPCTimeout < 0 {
		return errors.New("config: ledger timeouts must not be negative")
	}
	if c.Ledger.MaxMsgBytes < 0 {
		return errors.New("config: ledger.max_msg_bytes must not be negative")
	}
	return c.Journal.Validate()
}

func (j JournalConfig) Validate() error {
	switch j.Backend {
	case "", JournalNone:
		return nil
	case JournalLocalFS:
		if j.Dir == "" {
			return errors.New("config: journal.dir is required for the localfs backend")
		}
	case JournalBolt:
		if j.BoltPath == "" {
			return errors.New("config: journal.bolt_path is required for the bolt backend")
		}
	case JournalAll:
		if j.Dir == "" || j.BoltPath == "" {
			return errors.New("config: journal.dir and journal.bolt_path are required for the all backend")
		}
	default:
		return fmt.Errorf("config: invalid journal.backend %q", j.Backend)
	}
	return nil
}
