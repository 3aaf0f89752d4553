package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ystepanoff/nowlink/internal/config"
	"github.com/ystepanoff/nowlink/internal/logging"
	"github.com/ystepanoff/nowlink/internal/output"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	logLevel     string
	noColor      bool

	// Shared state set during PersistentPreRun
	cfg       config.Config
	logger    zerolog.Logger
	logCloser io.Closer
	formatter output.Formatter
)

// rootCmd is the base command for nowlink.
var rootCmd = &cobra.Command{
	Use:   "nowlink",
	Short: "Connectionless peer link with liveness and handshakes",
	Long: `nowlink runs nodes of a small peer-to-peer link protocol: broadcast
discovery, a CONNECT handshake, heartbeats and CRC-checked frames.
Nodes talk over UDP multicast (run) or an in-process simulated radio (sim).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if noColor {
			cfg.Log.NoColor = true
		}

		logger, logCloser, err = logging.Configure(cfg.Log)
		if err != nil {
			return err
		}

		formatter, err = output.NewPeerFormatter(outputFormat, !noColor)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colours in logs and tables")
}
