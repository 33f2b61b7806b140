package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dappbank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, DefaultContract, cfg.Contract.Address)
	assert.False(t, cfg.HasWallet())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
listen: ":9090"
chain:
  rpc_url: "ws://node:8546"
  chain_id: 31337
  confirm_timeout: 90s
contract:
  address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
wallet:
  keystore: "/tmp/ks"
  auto_connect: true
log:
  debug: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, int64(31337), cfg.Chain.ChainID)
	assert.Equal(t, 90*time.Second, cfg.Chain.ConfirmTimeout)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", cfg.ContractAddress().Hex())
	assert.True(t, cfg.HasWallet())
	assert.True(t, cfg.Wallet.AutoConnect)
	// 未出現在檔案中的欄位保留預設值
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadUnknownField(t *testing.T) {
	path := writeFile(t, "bogus: 1\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"DAPPBANK_RPC_URL":      "https://rpc.example",
		"DAPPBANK_CHAIN_ID":     "5",
		"DAPPBANK_AUTO_APPROVE": "true",
	}
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "https://rpc.example", cfg.Chain.RPCURL)
	assert.Equal(t, int64(5), cfg.Chain.ChainID)
	assert.True(t, cfg.Wallet.AutoApprove)

	bad := Default()
	err := bad.applyEnv(func(k string) (string, bool) {
		if k == "DAPPBANK_CHAIN_ID" {
			return "x", true
		}
		return "", false
	})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad address":  func(c *Config) { c.Contract.Address = "0x123" },
		"bad scheme":   func(c *Config) { c.Chain.RPCURL = "ftp://x" },
		"no scheme":    func(c *Config) { c.Chain.RPCURL = "localhost" },
		"two wallets":  func(c *Config) { c.Wallet.Keystore = "/k"; c.Wallet.PrivateKey = "00" },
		"short key":    func(c *Config) { c.Wallet.PrivateKey = "0xabcd" },
		"neg timeout":  func(c *Config) { c.Chain.ConfirmTimeout = -time.Second },
		"neg chain id": func(c *Config) { c.Chain.ChainID = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
