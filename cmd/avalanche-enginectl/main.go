// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command avalanche-enginectl runs a standalone avalanche voting engine
// against the in-memory reference PeerManager, for local experimentation
// against a synthetic block.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/avalanche-engine/avalanche"
	"github.com/luxfi/avalanche-engine/avalanche/peer"
	"github.com/luxfi/avalanche-engine/config"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avalanche-enginectl",
		Short: "Runs a standalone avalanche voting engine",
	}
	cmd.AddCommand(runCommand())
	return cmd
}

func runCommand() *cobra.Command {
	var (
		peerCount int
		blockHash string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconciles a single synthetic block against simulated peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, peerCount, blockHash)
		},
	}
	cmd.Flags().IntVar(&peerCount, "peers", 4, "number of simulated peers to register")
	cmd.Flags().StringVar(&blockHash, "block", "", "hex-encoded block hash to reconcile (random if empty)")
	return cmd
}

// logTransport hands every emitted Poll to its logger instead of sending
// it over a real network. run wires it with log.NoLog, so those log lines
// are discarded; the CLI's visible output is the once-a-second
// confidence line run prints.
type logTransport struct {
	log log.Logger
}

func (t *logTransport) SendPoll(nodeID ids.NodeID, poll avalanche.Poll) {
	t.log.Info("poll sent",
		log.Stringer("nodeID", nodeID),
		log.Uint32("round", uint32(poll.Round)),
		log.Int("invs", len(poll.Invs)),
	)
}

func run(cmd *cobra.Command, peerCount int, blockHashHex string) error {
	logger := log.NoLog{}

	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	peers := peer.NewManager(logger)
	for i := 0; i < peerCount; i++ {
		nodeID := ids.GenerateTestNodeID()
		if err := peers.AddNode(nodeID, ids.GenerateTestID(), 10); err != nil {
			return fmt.Errorf("registering simulated peer: %w", err)
		}
	}

	processor, err := avalanche.NewProcessor(logger, nil, cfg.ToParams(), &logTransport{log: logger}, peers, nil)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	var hash ids.ID
	if blockHashHex != "" {
		parsed, err := ids.FromString(blockHashHex)
		if err != nil {
			return fmt.Errorf("parsing block hash: %w", err)
		}
		hash = parsed
	} else {
		hash = ids.GenerateTestID()
	}

	block := avalanche.NewBlockItem(hash, avalanche.Work{Lo: 1}, nil)
	processor.AddBlockToReconcile(block)
	processor.Start()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			processor.Stop()
			return nil
		case <-ticker.C:
			fmt.Printf("confidence=%d accepted=%v\n",
				processor.GetConfidence(avalanche.KindBlock, hash),
				processor.IsAccepted(avalanche.KindBlock, hash),
			)
		}
	}
}
