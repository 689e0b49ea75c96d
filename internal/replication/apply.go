package replication

import (
	"log"

	"kvrep/internal/storage"
)

// ApplyResult reports how a follower handled one replicated write.
// Accepted is true even when the write was skipped as stale: staleness
// is a successful no-op, not a protocol error. Only transport-level
// failures are protocol errors, so the leader cannot tell "peer applied
// this write" from "peer was already fresher" by the outcome alone.
type ApplyResult struct {
	Accepted bool
	Applied  bool
	Message  string
}

// Applier applies replicated writes to a follower's local store using
// the last-write-wins rule.
type Applier struct {
	store  storage.Store
	nodeID string
}

// NewApplier creates a follower apply service over the given store.
func NewApplier(store storage.Store, nodeID string) *Applier {
	return &Applier{store: store, nodeID: nodeID}
}

// Apply merges one replicated write into the local store.
func (a *Applier) Apply(key, value string, timestamp float64) ApplyResult {
	if a.store.Put(key, value, timestamp) {
		log.Printf("[%s] replicated: %s=%s", a.nodeID, key, value)
		return ApplyResult{Accepted: true, Applied: true, Message: "successfully replicated"}
	}

	log.Printf("[%s] skipping stale write for %s", a.nodeID, key)
	return ApplyResult{Accepted: true, Applied: false, Message: "skipped stale write"}
}
