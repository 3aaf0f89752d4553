package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show nowlink version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "nowlink version %s (%s)\n", version, runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "frame header %d bytes, max frame %d bytes\n", proto.FrameHeaderSize, proto.MaxFrameSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
