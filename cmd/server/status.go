// cmd/server/status.go

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dappbank/internal/session"
)

var statusConnect bool

var statusCmd = &cobra.Command{
	Use:   "status [flags]",
	Short: "Print the bank name, owner and (with --connect) your balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := build(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		if statusConnect {
			_ = a.ctrl.Connect(ctx)
		} else {
			_ = a.ctrl.Refresh(ctx)
		}
		renderState(os.Stdout, a.proxy.Address().Hex(), a.ctrl.State())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusConnect, "connect", false, "connect the configured wallet to read its balance")
}

// renderState 以表格輸出狀態；尚未讀到的值顯示為 "-"。
func renderState(w io.Writer, contract string, st session.State) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"Contract", contract})
	table.Append([]string{"Bank name", orDash(st.BankName, func(s string) string { return fmt.Sprintf("%q", s) })})
	owner := "-"
	if st.OwnerAddress != nil {
		owner = st.OwnerAddress.Hex()
	}
	table.Append([]string{"Owner", owner})
	table.Append([]string{"Wallet", string(st.Status)})
	if st.Account != nil {
		table.Append([]string{"Account", st.Account.Hex()})
		table.Append([]string{"Is owner", fmt.Sprint(st.IsOwner)})
	}
	if st.Balance != nil {
		table.Append([]string{"Balance", st.Balance.String() + " ETH"})
	}
	if st.LastError != nil {
		table.Append([]string{"Error", st.LastError.Message})
	}
	table.Render()
}

func orDash[T any](v *T, format func(T) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}
