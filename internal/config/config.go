// internal/config/config.go
//
// Package config 讀取 YAML 設定檔，並以 DAPPBANK_* 環境變數覆寫。
// 命令列旗標的覆寫由 cmd 層處理。
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultContract 為原始頁面寫死的 Bank 合約部署位址。
const DefaultContract = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type ChainConfig struct {
	RPCURL         string        `yaml:"rpc_url"`
	ChainID        int64         `yaml:"chain_id"` // 0 代表向節點查詢
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

type ContractConfig struct {
	Address  string `yaml:"address"`
	Artifact string `yaml:"artifact"`
}

// WalletConfig 描述錢包提供者。Keystore 與 PrivateKey 皆為空時視為「未安裝錢包」。
type WalletConfig struct {
	Keystore    string `yaml:"keystore"`
	PrivateKey  string `yaml:"private_key"`
	Passphrase  string `yaml:"passphrase"`
	AutoApprove bool   `yaml:"auto_approve"`
	AutoConnect bool   `yaml:"auto_connect"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Debug      bool   `yaml:"debug"`
}

type Config struct {
	Listen   string         `yaml:"listen"`
	Chain    ChainConfig    `yaml:"chain"`
	Contract ContractConfig `yaml:"contract"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Log      LogConfig      `yaml:"log"`
}

// Default 回傳未讀取任何檔案時的設定。
func Default() Config {
	return Config{
		Listen: ":8080",
		Chain: ChainConfig{
			RPCURL: "http://127.0.0.1:8545",
		},
		Contract: ContractConfig{
			Address: DefaultContract,
		},
		Log: LogConfig{
			File:       "./logs/dappbank.log",
			MaxSizeMB:  10,
			MaxAgeDays: 7,
		},
	}
}

// Load 以 Default() 為底讀取 path（可為空），套用環境變數後驗證。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "open config %s", path)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"DAPPBANK_LISTEN":      &c.Listen,
		"DAPPBANK_RPC_URL":     &c.Chain.RPCURL,
		"DAPPBANK_CONTRACT":    &c.Contract.Address,
		"DAPPBANK_ARTIFACT":    &c.Contract.Artifact,
		"DAPPBANK_KEYSTORE":    &c.Wallet.Keystore,
		"DAPPBANK_PRIVATE_KEY": &c.Wallet.PrivateKey,
		"DAPPBANK_PASSPHRASE":  &c.Wallet.Passphrase,
		"DAPPBANK_LOG_FILE":    &c.Log.File,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("DAPPBANK_CHAIN_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "DAPPBANK_CHAIN_ID")
		}
		c.Chain.ChainID = id
	}
	if v, ok := lookup("DAPPBANK_AUTO_APPROVE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "DAPPBANK_AUTO_APPROVE")
		}
		c.Wallet.AutoApprove = b
	}
	return nil
}

// Validate 檢查位址與 URL 格式；不檢查節點是否可連線。
func (c Config) Validate() error {
	if !common.IsHexAddress(c.Contract.Address) {
		return errors.Errorf("contract.address %q is not a hex address", c.Contract.Address)
	}
	u, err := url.Parse(c.Chain.RPCURL)
	if err != nil || u.Scheme == "" {
		return errors.Errorf("chain.rpc_url %q is not a URL", c.Chain.RPCURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return errors.Errorf("chain.rpc_url scheme %q not supported", u.Scheme)
	}
	if c.Chain.ChainID < 0 {
		return errors.New("chain.chain_id must be >= 0")
	}
	if c.Chain.ConfirmTimeout < 0 {
		return errors.New("chain.confirm_timeout must be >= 0")
	}
	if c.Wallet.Keystore != "" && c.Wallet.PrivateKey != "" {
		return errors.New("wallet.keystore and wallet.private_key are mutually exclusive")
	}
	if pk := strings.TrimPrefix(c.Wallet.PrivateKey, "0x"); pk != "" && len(pk) != 64 {
		return errors.New("wallet.private_key must be 32 bytes hex")
	}
	return nil
}

// ContractAddress 回傳已驗證的合約位址。
func (c Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract.Address)
}

// HasWallet 代表是否設定了任何錢包提供者。
func (c Config) HasWallet() bool {
	return c.Wallet.Keystore != "" || c.Wallet.PrivateKey != ""
}
