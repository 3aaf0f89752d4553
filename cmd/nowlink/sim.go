package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ystepanoff/nowlink"
	"github.com/ystepanoff/nowlink/driver/stub"
	"github.com/ystepanoff/nowlink/internal/output"
	proto "github.com/ystepanoff/nowlink/protocol"
)

var (
	simNodes    int
	simDuration time.Duration
	simLoss     float64
	simSeed     int64
)

// simNode is the end-of-run report for one simulated node.
type simNode struct {
	Address   string           `json:"address" yaml:"address"`
	Connected bool             `json:"connected" yaml:"connected"`
	Peers     []output.PeerRow `json:"peers" yaml:"peers"`
	Stats     map[string]int64 `json:"stats" yaml:"stats"`
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulate a network of nodes on an in-process radio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simNodes < 1 || simNodes > 255 {
			return fmt.Errorf("%w: --nodes must be in 1..255", proto.ErrInvalidArgument)
		}
		if simLoss < 0 || simLoss > 1 {
			return fmt.Errorf("%w: --loss must be in [0, 1]", proto.ErrInvalidArgument)
		}

		medium := stub.NewMedium()
		medium.SetLoss(simLoss)
		if simSeed != 0 {
			medium.SetSeed(simSeed)
		}

		nodes := make([]*nowlink.Node, simNodes)
		for i := range nodes {
			addr := proto.Address{0x02, 0, 0, 0, 0, byte(i + 1)}
			n, err := nowlink.NewSimulatedNode(medium, addr, cfg.Protocol.Transport(), nowlink.WithLogger(logger))
			if err != nil {
				return err
			}
			nodes[i] = n
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), simDuration)
		defer cancel()
		var wg sync.WaitGroup
		for _, n := range nodes {
			wg.Add(1)
			go func(n *nowlink.Node) {
				defer wg.Done()
				if err := n.Run(ctx); err != nil {
					logger.Error().Err(err).Str("node", n.Address().String()).Msg("run")
				}
			}(n)
		}
		wg.Wait()

		report := make([]simNode, len(nodes))
		for i, n := range nodes {
			report[i] = simNode{
				Address:   n.Address().String(),
				Connected: n.Connected(),
				Peers:     output.PeerRows(n.Peers(), n.Now()),
				Stats:     n.Stats(),
			}
		}

		out := cmd.OutOrStdout()
		if _, table := formatter.(*output.TableFormatter); !table {
			fmt.Fprint(out, formatter.Format(report))
			return nil
		}
		for _, r := range report {
			fmt.Fprintf(out, "== %s connected=%v\n", r.Address, r.Connected)
			fmt.Fprint(out, formatter.Format(r.Peers))
		}
		return nil
	},
}

func init() {
	simCmd.Flags().IntVar(&simNodes, "nodes", 3, "number of simulated nodes")
	simCmd.Flags().DurationVar(&simDuration, "duration", 3*time.Second, "how long to run the simulation")
	simCmd.Flags().Float64Var(&simLoss, "loss", 0, "probability that a single delivery is dropped")
	simCmd.Flags().Int64Var(&simSeed, "seed", 0, "seed for loss decisions (0 = random)")
	rootCmd.AddCommand(simCmd)
}
