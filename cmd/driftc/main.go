// Command driftc is the driftfs command-line client, built on
// internal/client (spec.md §4.3).
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"driftfs/internal/client"
	"driftfs/internal/logging"
)

var version = "dev"

func main() {
	var masterAddrs []string
	var chunkSize int64
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "driftc",
		Short: "Command-line client for a driftfs cluster",
	}
	rootCmd.PersistentFlags().StringSliceVarP(&masterAddrs, "master", "m", nil, "master addresses (comma-separated or repeated)")
	rootCmd.PersistentFlags().Int64Var(&chunkSize, "chunk-size", 64*1024*1024, "chunk size in bytes")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	newClient := func() *client.Client {
		logger := slog.New(logging.NewComponentFilterHandler(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
			parseLevel(logLevel),
		))
		return client.New(client.Config{MasterAddrs: masterAddrs, ChunkSize: chunkSize}, logger)
	}

	rootCmd.AddCommand(
		newLoginCmd(newClient),
		newPutCmd(newClient),
		newGetCmd(newClient),
		newRmCmd(newClient),
		newAppendCmd(newClient),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run:   func(cmd *cobra.Command, args []string) { fmt.Println(version) },
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLoginCmd(newClient func() *client.Client) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the master (the OTP is not printed or kept for later commands)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if err := c.Authenticate(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Println("authenticated")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

// newPutCmd uploads one or more local files. Arguments may be doublestar
// glob patterns (e.g. "logs/**/*.log") to upload many files in one call.
func newPutCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "put <pattern>...",
		Short: "Upload files matching one or more glob patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			ctx := cmd.Context()

			var matched []string
			for _, pattern := range args {
				hits, err := doublestar.FilepathGlob(pattern)
				if err != nil {
					return fmt.Errorf("expand pattern %q: %w", pattern, err)
				}
				if len(hits) == 0 {
					matched = append(matched, pattern)
					continue
				}
				matched = append(matched, hits...)
			}

			failed := 0
			for _, path := range matched {
				name, err := c.Upload(ctx, path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "put %s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Println(name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(matched))
			}
			return nil
		},
	}
}

func newGetCmd(newClient func() *client.Client) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "get <file>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			data, err := c.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to this path instead of stdout")
	return cmd
}

func newRmCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Delete(cmd.Context(), args[0])
		},
	}
}

func newAppendCmd(newClient func() *client.Client) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "append <file>",
		Short: "Append data (from stdin or --from) to every chunk of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if fromFile != "" {
				data, err = os.ReadFile(fromFile)
			} else {
				data, err = readAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return newClient().Append(cmd.Context(), args[0], data)
		},
	}
	cmd.Flags().StringVar(&fromFile, "from", "", "read append data from this file instead of stdin")
	return cmd
}

func readAll(f *os.File) ([]byte, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}
