package replication

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"kvrep/internal/clock"
	"kvrep/internal/config"
	"kvrep/internal/quorum"
	"kvrep/internal/storage"
)

// WriteOutcome is returned to the write caller. Confirmations is a
// snapshot at the moment the quorum was reached or all attempts
// resolved, not a guarantee about final replica convergence.
type WriteOutcome struct {
	Success       bool
	Key           string
	Value         string
	Confirmations int
	Message       string
}

// Coordinator is the leader-side replication engine. Each write is
// stamped, applied to the local store, then fanned out concurrently to
// every follower; the caller gets a response as soon as the write
// quorum has confirmed, while slower attempts finish under the
// supervisor.
type Coordinator struct {
	store      storage.Store
	clock      clock.Source
	followers  []string
	quorum     int
	minDelay   time.Duration
	maxDelay   time.Duration
	replicator Replicator
	sup        *quorum.Supervisor
	nodeID     string
}

// NewCoordinator creates a leader coordinator from a validated config.
func NewCoordinator(cfg config.Config, store storage.Store, src clock.Source, repl Replicator, sup *quorum.Supervisor) *Coordinator {
	return &Coordinator{
		store:      store,
		clock:      src,
		followers:  cfg.FollowerHosts,
		quorum:     cfg.WriteQuorum,
		minDelay:   time.Duration(cfg.MinDelayMs) * time.Millisecond,
		maxDelay:   time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		replicator: repl,
		sup:        sup,
		nodeID:     cfg.NodeID,
	}
}

// Write stamps and stores the pair locally, then replicates it to all
// followers, returning once the configured quorum has confirmed or
// every attempt has resolved. Replication failures only reduce the
// confirmation count; they are never surfaced as errors.
func (c *Coordinator) Write(ctx context.Context, key, value string) WriteOutcome {
	timestamp := c.clock.Now()

	// Local apply first. The merge rule still holds under concurrent
	// local writes to the same key: the freshest stamp wins.
	c.store.Put(key, value, timestamp)
	log.Printf("[%s] write: %s=%s", c.nodeID, key, value)

	attempts := make([]quorum.Attempt, len(c.followers))
	for i, host := range c.followers {
		host := host
		delay := c.delay()
		attempts[i] = func(ctx context.Context) bool {
			time.Sleep(delay)
			ok, err := c.replicator.Replicate(ctx, host, key, value, timestamp)
			if err != nil {
				log.Printf("[%s] replication to %s failed: %v", c.nodeID, host, err)
				return false
			}
			log.Printf("[%s] replicated to %s (delay: %s)", c.nodeID, host, delay)
			return ok
		}
	}

	// Detached attempts must outlive the caller's deadline; each one is
	// bounded by the replicator's own per-call timeout instead.
	res := quorum.Race(context.WithoutCancel(ctx), attempts, c.quorum, c.sup)

	if !res.Success {
		log.Printf("[%s] write quorum not met: %d/%d", c.nodeID, res.Acks, c.quorum)
	}

	return WriteOutcome{
		Success:       res.Success,
		Key:           key,
		Value:         value,
		Confirmations: res.Acks,
		Message: fmt.Sprintf("replicated to %d/%d followers (quorum: %d)",
			res.Acks, len(c.followers), c.quorum),
	}
}

// delay draws an independent simulated network latency for one attempt,
// uniform over [minDelay, maxDelay].
func (c *Coordinator) delay() time.Duration {
	if c.maxDelay <= c.minDelay {
		return c.minDelay
	}
	return c.minDelay + time.Duration(rand.Int63n(int64(c.maxDelay-c.minDelay)+1))
}
