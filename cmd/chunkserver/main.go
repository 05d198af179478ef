// Command chunkserver runs a driftfs ChunkServer storage node.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"driftfs/internal/chunkserver"
	"driftfs/internal/chunkserverconfig"
	"driftfs/internal/logging"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "chunkserver",
		Short: "Run a driftfs ChunkServer node",
		RunE:  runChunkServer,
	}

	rootCmd.Flags().StringP("addr", "a", ":8000", "bind address for this chunkserver (host:port)")
	rootCmd.Flags().String("config", "", "path to chunkserver config file (JSON)")
	rootCmd.Flags().StringSlice("master-addrs", nil, "master addresses to register with (overrides config file)")

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

func runChunkServer(cmd *cobra.Command, args []string) error {
	selfAddr, _ := cmd.Flags().GetString("addr")
	configPath, _ := cmd.Flags().GetString("config")
	masterAddrs, _ := cmd.Flags().GetStringSlice("master-addrs")

	var cfg chunkserverconfig.Config
	if configPath != "" {
		loaded, err := chunkserverconfig.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = chunkserverconfig.Config{}.WithDefaults()
	}
	if len(masterAddrs) > 0 {
		cfg.MasterAddrs = masterAddrs
	}

	logger := slog.New(logging.NewComponentFilterHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		parseLevel(cfg.LogLevel),
	))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := chunkserver.New(ctx, selfAddr, cfg, logger)
	if err != nil {
		return fmt.Errorf("construct chunkserver: %w", err)
	}

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start chunkserver: %w", err)
	}

	rpcServer := chunkserver.NewRPCServer(s)

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
	if err := s.Stop(); err != nil {
		logger.Error("chunkserver stop error", "error", err)
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
