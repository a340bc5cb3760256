package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, "bounty-local", cfg.NetworkName)
	require.Equal(t, "guarded", cfg.OverridePolicy)

	// The default file was written and loads back identically.
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadParsesAmounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
RPCAddress = ":9999"
MinBountyAmount = "1000"
BountyRent = "25"
OverridePolicy = "unguarded"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	min, err := cfg.MinBountyAmountInt()
	require.NoError(t, err)
	require.Zero(t, min.Cmp(big.NewInt(1000)))

	rent, err := cfg.BountyRentInt()
	require.NoError(t, err)
	require.Zero(t, rent.Cmp(big.NewInt(25)))

	require.True(t, cfg.OverrideUnguarded())
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`OverridePolicy = "sometimes"`), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "OverridePolicy")
}

func TestLoadRejectsInvalidAmounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`MinBountyAmount = "not-a-number"`), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`BountyRent = "-5"`), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}
