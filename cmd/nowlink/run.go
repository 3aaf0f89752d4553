package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ystepanoff/nowlink"
	"github.com/ystepanoff/nowlink/internal/config"
	"github.com/ystepanoff/nowlink/internal/output"
	proto "github.com/ystepanoff/nowlink/protocol"
)

var (
	runAddress  string
	runGroup    string
	runInterval time.Duration
	runConnect  []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a node on the UDP multicast link",
	Long: `Run joins the configured multicast group and takes part in discovery and
handshakes until interrupted. Received DATA and TEXT frames are printed, and
the peer table is printed every --interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Node.Address
		if runAddress != "" {
			var err error
			if addr, err = proto.ParseAddress(runAddress); err != nil {
				return err
			}
		}
		if addr.IsZero() {
			addr = proto.RandomAddress()
		}
		if runGroup != "" {
			cfg.UDP.Group = runGroup
		}
		peers := make([]proto.Address, 0, len(runConnect))
		for _, raw := range runConnect {
			peer, err := proto.ParseAddress(raw)
			if err != nil {
				return err
			}
			peers = append(peers, peer)
		}

		out := cmd.OutOrStdout()
		nodeLog := nodeLogger(logger, cfg.Node)
		node, err := nowlink.NewUDPNode(cfg.UDPDriver(addr), cfg.Protocol.Transport(), nodeLog,
			nowlink.WithDataHandler(func(src nowlink.Address, t nowlink.FrameType, payload []byte) {
				fmt.Fprintf(out, "%s %s: %q\n", src, t, payload)
			}))
		if err != nil {
			return fmt.Errorf("create node: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- node.Run(ctx) }()

		for _, peer := range peers {
			if err := node.Connect(peer); err != nil {
				nodeLog.Warn().Err(err).Str("peer", peer.String()).Msg("connect")
			}
		}

		nodeLog.Info().Str("address", addr.String()).Str("group", cfg.UDP.Group).Msg("node running")
		return printPeersUntilDone(ctx, out, node, runInterval, errc)
	},
}

// nodeLogger tags base with the configured node name, if any.
func nodeLogger(base zerolog.Logger, n config.NodeConfig) zerolog.Logger {
	if n.Name == "" {
		return base
	}
	return base.With().Str("name", n.Name).Logger()
}

func printPeersUntilDone(ctx context.Context, out io.Writer, node *nowlink.Node, every time.Duration, errc <-chan error) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case err := <-errc:
			return err
		case <-ticker.C:
			fmt.Fprint(out, formatter.Format(output.PeerRows(node.Peers(), node.Now())))
		case <-ctx.Done():
			return <-errc
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&runAddress, "address", "", "node address (aa:bb:cc:dd:ee:ff); random when unset")
	runCmd.Flags().StringVar(&runGroup, "group", "", "multicast group host:port")
	runCmd.Flags().DurationVar(&runInterval, "interval", time.Second, "how often to print the peer table")
	runCmd.Flags().StringSliceVar(&runConnect, "connect", nil, "peer addresses to connect to at startup")
	rootCmd.AddCommand(runCmd)
}
