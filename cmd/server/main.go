// cmd/server/main.go

// 本服務是 Bank 合約的錢包客戶端：
// 持有一個使用者 session，透過 JSON-RPC 節點讀寫合約，以本機 keystore 簽章，
// 並以 HTTP / WebSocket 提供畫面所需的狀態與操作。
// 此檔案負責命令列與設定；模組組裝見 wire.go。

package main

import (
	"os"

	"github.com/spf13/cobra"

	"dappbank/internal/config"
	"dappbank/internal/logx"
)

// flags 為命令列覆寫；空值代表沿用設定檔。
type flags struct {
	ConfigFile string
	Listen     string
	RPCURL     string
	Contract   string
	Keystore   string
	Debug      bool
}

var opts flags

var rootCmd = &cobra.Command{
	Use:   "dappbank",
	Short: "Wallet-connected client for the Bank contract",
	Long: `dappbank runs one wallet session against a deployed Bank contract and
serves its state over HTTP and WebSocket.

Examples:
  # Run against a local anvil/hardhat node with a dev key
  dappbank serve --rpc http://127.0.0.1:8545 --contract 0x5FbDB2315678afecb367f032d93F642f64180aa3

  # Run without a node
  dappbank serve --simulate`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file")
	pf.StringVar(&opts.RPCURL, "rpc", "", "JSON-RPC endpoint of the chain node")
	pf.StringVar(&opts.Contract, "contract", "", "Bank contract address")
	pf.StringVar(&opts.Keystore, "keystore", "", "keystore directory")
	pf.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
}

// loadConfig 讀取設定檔與環境變數，再套用命令列旗標，並初始化日誌。
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.RPCURL != "" {
		cfg.Chain.RPCURL = opts.RPCURL
	}
	if opts.Contract != "" {
		cfg.Contract.Address = opts.Contract
	}
	if opts.Keystore != "" {
		cfg.Wallet.Keystore = opts.Keystore
	}
	if opts.Debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	logx.Setup(logx.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      cfg.Log.Debug,
	})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "command failed: ", err)
		_ = logx.Close()
		os.Exit(1)
	}
	_ = logx.Close()
}
