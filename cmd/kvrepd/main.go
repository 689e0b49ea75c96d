package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kvrep/internal/config"
	"kvrep/internal/node"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Flags override the environment.
	role := flag.String("role", cfg.Role, "node role: leader or follower")
	nodeID := flag.String("node-id", cfg.NodeID, "node identifier")
	port := flag.Int("port", cfg.Port, "listen port")
	followers := flag.String("followers", strings.Join(cfg.FollowerHosts, ","), "comma-separated follower addresses")
	writeQuorum := flag.Int("write-quorum", cfg.WriteQuorum, "confirmations required for a successful write")
	minDelay := flag.Int("min-delay", cfg.MinDelayMs, "minimum simulated replication delay (ms)")
	maxDelay := flag.Int("max-delay", cfg.MaxDelayMs, "maximum simulated replication delay (ms)")
	flag.Parse()

	cfg.Role = *role
	cfg.NodeID = *nodeID
	cfg.Port = *port
	cfg.FollowerHosts = config.ParseHosts(*followers)
	cfg.WriteQuorum = *writeQuorum
	cfg.MinDelayMs = *minDelay
	cfg.MaxDelayMs = *maxDelay

	n, err := node.New(cfg)
	if err != nil {
		log.Fatalf("failed to build node: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- n.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("node exited: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.Stop(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
