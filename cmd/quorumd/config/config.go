// Package config loads the quorumd configuration. Values are read from a
// YAML file, or a TOML file when the path ends with .toml, and then
// overridden by QUORUM_ prefixed environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables read.
const EnvPrefix = "quorum"

// FileName is the name of the configuration file in the home directory.
const FileName = "quorumd.yaml"

const (
	StoreMemory = "memory"
	StoreIAVL   = "iavl"
	// StoreBadger keeps the iavl tree in badger instead of goleveldb.
	StoreBadger = "badger"
)

// Config holds the node settings.
type Config struct {
	Home          string        `yaml:"-"             toml:"-"             ignored:"true"`
	Store         string        `yaml:"store"         toml:"store"`
	ChainID       string        `yaml:"chainId"       toml:"chainId"       split_words:"true"`
	Genesis       string        `yaml:"genesis"       toml:"genesis"`
	BlockInterval time.Duration `yaml:"blockInterval" toml:"blockInterval" split_words:"true"`
	HTTPAddr      string        `yaml:"httpAddr"      toml:"httpAddr"      envconfig:"HTTP_ADDR"`
	MetricsAddr   string        `yaml:"metricsAddr"   toml:"metricsAddr"   split_words:"true"`
	LogLevel      string        `yaml:"logLevel"      toml:"logLevel"      split_words:"true"`
	Debug         bool          `yaml:"debug"         toml:"debug"`
}

// Default returns the configuration used for all values that are not set.
func Default(home string) *Config {
	return &Config{
		Home:          home,
		Store:         StoreIAVL,
		ChainID:       "quorum-local",
		Genesis:       "genesis.json",
		BlockInterval: time.Second,
		HTTPAddr:      "127.0.0.1:8480",
		MetricsAddr:   "127.0.0.1:8481",
		LogLevel:      "info",
	}
}

// Load reads the file at path over the defaults, if the file exists, and
// applies the environment.
func Load(home, path string) (*Config, error) {
	cfg := Default(home)
	if path == "" {
		path = filepath.Join(home, FileName)
	}
	switch raw, err := os.ReadFile(path); {
	case err == nil:
		if err := decode(path, raw, cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "parse %s: %s", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(errors.ErrInput, "read %s: %s", path, err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "environment: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode reads TOML files by their extension, everything else is YAML.
func decode(path string, raw []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(raw, cfg)
	}
	return yaml.Unmarshal(raw, cfg)
}

// Write stores the configuration as YAML.
func (c *Config) Write(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(errors.ErrInput, "write %s: %s", path, err)
	}
	return nil
}

// Validate returns an error if the configuration cannot be used to run a
// node.
func (c *Config) Validate() error {
	if c.Home == "" {
		return errors.Wrap(errors.ErrEmpty, "home")
	}
	switch c.Store {
	case StoreMemory, StoreIAVL, StoreBadger:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown store %q", c.Store)
	}
	if !quorum.IsValidChainID(c.ChainID) {
		return errors.Wrapf(errors.ErrInput, "chain id %q", c.ChainID)
	}
	if c.BlockInterval <= 0 {
		return errors.Wrap(errors.ErrInput, "block interval must be positive")
	}
	if c.HTTPAddr == "" {
		return errors.Wrap(errors.ErrEmpty, "http address")
	}
	switch c.LogLevel {
	case "debug", "info", "error", "none":
	default:
		return errors.Wrapf(errors.ErrInput, "log level %q", c.LogLevel)
	}
	return nil
}

// GenesisPath returns the genesis file location, relative paths are
// resolved against the home directory.
func (c *Config) GenesisPath() string {
	return c.resolve(c.Genesis)
}

// DataDir is where the persistent store keeps its files.
func (c *Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Home, path)
}
