// Package node wires a role's services to an HTTP server: store,
// coordinator or applier, router, and lifecycle.
package node

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"kvrep/internal/clock"
	"kvrep/internal/config"
	"kvrep/internal/httpapi"
	"kvrep/internal/quorum"
	"kvrep/internal/replication"
	"kvrep/internal/storage"
)

// Node is a single leader or follower process.
type Node struct {
	cfg    config.Config
	store  storage.Store
	sup    *quorum.Supervisor
	server *http.Server
}

// New builds a node for the configured role. The store is owned by the
// node and injected into the role services; there is no ambient state.
func New(cfg config.Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store := storage.NewMemStore()
	sup := quorum.NewSupervisor()

	var handler http.Handler
	switch cfg.Role {
	case config.RoleLeader:
		coord := replication.NewCoordinator(cfg, store, clock.System{}, replication.NewHTTPReplicator(), sup)
		handler = httpapi.NewLeaderServer(cfg, coord, store, sup).Handler()
	case config.RoleFollower:
		applier := replication.NewApplier(store, cfg.NodeID)
		handler = httpapi.NewFollowerServer(applier, store, cfg.NodeID).Handler()
	}

	return &Node{
		cfg:   cfg,
		store: store,
		sup:   sup,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: handler,
		},
	}, nil
}

// Start serves until Stop is called or the listener fails.
func (n *Node) Start() error {
	log.Printf("[%s] starting %s on port %d", n.cfg.NodeID, n.cfg.Role, n.cfg.Port)
	if n.cfg.Role == config.RoleLeader {
		log.Printf("[%s] write quorum: %d", n.cfg.NodeID, n.cfg.WriteQuorum)
		log.Printf("[%s] followers: %v", n.cfg.NodeID, n.cfg.FollowerHosts)
		log.Printf("[%s] network delay range: [%dms, %dms]", n.cfg.NodeID, n.cfg.MinDelayMs, n.cfg.MaxDelayMs)
	}

	if err := n.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully and waits for detached
// replication attempts to settle, bounded by ctx.
func (n *Node) Stop(ctx context.Context) error {
	log.Printf("[%s] stopping node", n.cfg.NodeID)
	if err := n.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return n.sup.Wait(ctx)
}
