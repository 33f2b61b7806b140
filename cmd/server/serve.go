// cmd/server/serve.go

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dappbank/internal/bank"
	"dappbank/internal/config"
	"dappbank/internal/logx"
	"dappbank/internal/server"
)

type serveFlags struct {
	Simulate   bool
	SimBalance string
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Run the wallet session and serve it over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, serveOpts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringVarP(&opts.Listen, "listen", "l", "", "HTTP listen address")
	f.BoolVar(&serveOpts.Simulate, "simulate", false, "use an in-memory Bank contract and wallet instead of a chain node")
	f.StringVar(&serveOpts.SimBalance, "sim-balance", "0", "starting deposit of the simulated account, in ETH")
}

func serve(parent context.Context, cfg config.Config, so serveFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, so.Simulate)
	if err != nil {
		return err
	}
	defer a.close()

	listen, autoConnect := cfg.Listen, cfg.Wallet.AutoConnect

	if a.sim != nil {
		start, err := decimal.NewFromString(so.SimBalance)
		if err != nil {
			return logx.Errorf("--sim-balance %q: %w", so.SimBalance, err)
		}
		wei, err := bank.ToBaseUnits(start)
		if err != nil {
			return logx.Errorf("--sim-balance %q: %w", so.SimBalance, err)
		}
		if wei.Sign() > 0 {
			a.sim.Credit(simAccount, wei)
		}
		autoConnect = true
	}

	// 初次載入：不需錢包即可讀取名稱與擁有者。
	if err := a.ctrl.Refresh(ctx); err != nil {
		logx.Warn("CMD", "initial refresh: ", err)
	}
	if autoConnect {
		if err := a.ctrl.Connect(ctx); err != nil {
			logx.Warn("CMD", "auto connect: ", err)
		}
	}
	go func() {
		if err := a.ctrl.Watch(ctx); err != nil {
			logx.Error("CMD", "account watcher stopped: ", err)
		}
	}()

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.NewServer(a.ctrl).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logx.Info("CMD", "bank client running at ", listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logx.Info("CMD", "shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
