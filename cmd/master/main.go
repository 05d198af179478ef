// Command master runs a driftfs Master (or Shadow Master) node.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to master.New via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"driftfs/internal/logging"
	"driftfs/internal/master"
	"driftfs/internal/masterconfig"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "master",
		Short: "Run a driftfs Master node",
		RunE:  runMaster,
	}

	rootCmd.Flags().StringP("addr", "a", ":7000", "bind address for this master (host:port)")
	rootCmd.Flags().String("config", "", "path to master config file (JSON)")
	rootCmd.Flags().String("metrics-addr", "", "address for the Prometheus /metrics endpoint (empty disables it)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMaster(cmd *cobra.Command, args []string) error {
	selfAddr, _ := cmd.Flags().GetString("addr")
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	var cfg masterconfig.Config
	if configPath != "" {
		loaded, err := masterconfig.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = masterconfig.Config{MasterAddrs: []string{selfAddr}}.WithDefaults()
	}

	logger := slog.New(logging.NewComponentFilterHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		parseLevel(cfg.LogLevel),
	))

	m, err := master.New(selfAddr, cfg, logger)
	if err != nil {
		return fmt.Errorf("construct master: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start master: %w", err)
	}

	rpcServer := master.NewRPCServer(m, metricsAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- rpcServer.ServeTCP(selfAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc server exited", "error", err)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := rpcServer.Stop(stopCtx); err != nil {
		logger.Error("rpc server stop error", "error", err)
	}
	if err := m.Stop(); err != nil {
		logger.Error("master stop error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
