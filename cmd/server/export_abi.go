// cmd/server/export_abi.go

package main

import (
	"github.com/spf13/cobra"

	"dappbank/internal/bank"
	"dappbank/internal/logx"
	"dappbank/internal/storage"
)

var exportABICmd = &cobra.Command{
	Use:   "export-abi <path>",
	Short: "Write the Bank ABI in use as a contract artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		parsed, err := bank.LoadABI(cfg.Contract.Artifact)
		if err != nil {
			return err
		}
		raw := bank.RawABI()
		if cfg.Contract.Artifact != "" {
			art, err := storage.LoadArtifact(cfg.Contract.Artifact)
			if err != nil {
				return err
			}
			raw = art.ABI
		}
		art := storage.Artifact{
			Meta:         &storage.Meta{Version: 1, Note: "exported by dappbank"},
			ContractName: "Bank",
			Address:      cfg.ContractAddress().Hex(),
			ABI:          raw,
		}
		if err := storage.SaveArtifact(args[0], art); err != nil {
			return err
		}
		logx.Info("CMD", "wrote ", len(parsed.Methods), " methods to ", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportABICmd)
}
