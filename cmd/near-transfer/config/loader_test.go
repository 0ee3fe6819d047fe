package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/near-transfer/internal/registry"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network.NetworkID)
	assert.Equal(t, "https://rpc.testnet.near.org", cfg.Network.NodeURL)
	assert.Equal(t, "https://explorer.testnet.near.org", cfg.Network.ExplorerURL)
	assert.Equal(t, 30*time.Second, cfg.Network.CallTimeout)

	assert.Equal(t, "env", cfg.Credential.Source)
	assert.Equal(t, "PRIVATE_KEY", cfg.Credential.EnvVar)
	assert.Equal(t, "0xpj.testnet", cfg.Transfer.From)
	assert.Equal(t, "0xpjunior.testnet", cfg.Transfer.To)
	assert.Equal(t, "1", cfg.Transfer.Amount)
	assert.Equal(t, "NEAR", cfg.Transfer.Symbol)
	assert.Empty(t, cfg.Path)

	reg, err := registry.New(cfg.Tokens)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEAR", "PTC"}, reg.Symbols())
}

func TestLoadMergesUserFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
network:
  id: mainnet
  node_url: https://rpc.mainnet.near.org
tokens:
  - symbol: NEAR
    kind: native
  - symbol: USDC
    kind: fungible
    contract: usdc.fakes.testnet
`), 0o600))

	t.Setenv("NEAR_TRANSFER_CREDENTIAL_SOURCE", "keystore")
	t.Setenv("NEAR_TRANSFER_NETWORK_CALL_TIMEOUT", "5s")

	cfg, err := load("", []string{filepath.Join(dir, "missing.yaml"), path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "mainnet", cfg.Network.NetworkID)
	assert.Equal(t, "https://rpc.mainnet.near.org", cfg.Network.NodeURL)
	// untouched keys keep their embedded value
	assert.Equal(t, "https://wallet.testnet.near.org", cfg.Network.WalletURL)
	assert.Equal(t, "keystore", cfg.Credential.Source)
	assert.Equal(t, 5*time.Second, cfg.Network.CallTimeout)

	reg, err := registry.New(cfg.Tokens)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEAR", "USDC"}, reg.Symbols())
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := load("", nil)
	require.NoError(t, err)

	bad := *cfg
	bad.Credential.Source = "ledger"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Network.NodeURL = " "
	assert.Error(t, bad.Validate())

	ok := *cfg
	ok.Tokens = nil
	ok.Credential.Source = " Prompt "
	require.NoError(t, ok.Validate())
	assert.Equal(t, "prompt", ok.Credential.Source)
	assert.Len(t, ok.Tokens, 2)
}

func TestCredentialsFile(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg, err := load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.near-credentials/testnet/0xpj.testnet.json", cfg.CredentialsFile())

	cfg.Credential.File = "/tmp/key.json"
	assert.Equal(t, "/tmp/key.json", cfg.CredentialsFile())
}
