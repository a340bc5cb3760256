package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress      string `toml:"RPCAddress"`
	DataDir         string `toml:"DataDir"`
	NetworkName     string `toml:"NetworkName"`
	GenesisAdmin    string `toml:"GenesisAdmin"`
	MinBountyAmount string `toml:"MinBountyAmount"`
	BountyRent      string `toml:"BountyRent"`
	OverridePolicy  string `toml:"OverridePolicy"`
}

// Load loads the configuration from the given path, writing a default file on
// first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "bounty-local"
	}
	if strings.TrimSpace(cfg.MinBountyAmount) == "" {
		cfg.MinBountyAmount = "0"
	}
	if strings.TrimSpace(cfg.BountyRent) == "" {
		cfg.BountyRent = "0"
	}
	if strings.TrimSpace(cfg.OverridePolicy) == "" {
		cfg.OverridePolicy = "guarded"
	}
}

// Validate checks the fields that must parse before the node can start.
func (c *Config) Validate() error {
	if _, err := c.MinBountyAmountInt(); err != nil {
		return err
	}
	if _, err := c.BountyRentInt(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.OverridePolicy)) {
	case "guarded", "unguarded":
	default:
		return fmt.Errorf("config: OverridePolicy must be \"guarded\" or \"unguarded\", got %q", c.OverridePolicy)
	}
	return nil
}

// MinBountyAmountInt parses the configured minimum bounty amount.
func (c *Config) MinBountyAmountInt() (*big.Int, error) {
	return parseAmount("MinBountyAmount", c.MinBountyAmount)
}

// BountyRentInt parses the configured storage deposit.
func (c *Config) BountyRentInt() (*big.Int, error) {
	return parseAmount("BountyRent", c.BountyRent)
}

// OverrideUnguarded reports whether the admin override skips the state guard.
func (c *Config) OverrideUnguarded() bool {
	return strings.ToLower(strings.TrimSpace(c.OverridePolicy)) == "unguarded"
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: %s is not a valid decimal amount: %q", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("config: %s must be non-negative", field)
	}
	return amount, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
