// Package it provides an in-process integration harness: a leader and
// a set of followers, each behind a real HTTP listener, plus a small
// JSON client for driving them the way an external caller would.
package it

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"kvrep/internal/clock"
	"kvrep/internal/config"
	"kvrep/internal/httpapi"
	"kvrep/internal/quorum"
	"kvrep/internal/replication"
	"kvrep/internal/storage"
)

// Options configures a test cluster.
type Options struct {
	Followers   int
	WriteQuorum int
	MinDelayMs  int
	MaxDelayMs  int
}

// Cluster is an in-process leader plus follower set.
type Cluster struct {
	Leader    *NodeHandle
	Followers []*NodeHandle
	Sup       *quorum.Supervisor
}

// NodeHandle wraps one running node. Store is the node's own record
// store, reachable directly for white-box assertions.
type NodeHandle struct {
	ID     string
	URL    string
	Store  storage.Store
	server *httptest.Server
}

// StartCluster starts the followers first, then a leader pointed at
// their listen addresses.
func StartCluster(opts Options) *Cluster {
	c := &Cluster{Sup: quorum.NewSupervisor()}

	hosts := make([]string, 0, opts.Followers)
	for i := 1; i <= opts.Followers; i++ {
		id := fmt.Sprintf("follower%d", i)
		store := storage.NewMemStore()
		srv := httptest.NewServer(
			httpapi.NewFollowerServer(replication.NewApplier(store, id), store, id).Handler())
		c.Followers = append(c.Followers, &NodeHandle{ID: id, URL: srv.URL, Store: store, server: srv})
		hosts = append(hosts, strings.TrimPrefix(srv.URL, "http://"))
	}

	cfg := config.Config{
		Role:          config.RoleLeader,
		NodeID:        "leader",
		Port:          config.DefaultPort,
		FollowerHosts: hosts,
		WriteQuorum:   opts.WriteQuorum,
		MinDelayMs:    opts.MinDelayMs,
		MaxDelayMs:    opts.MaxDelayMs,
	}
	store := storage.NewMemStore()
	coord := replication.NewCoordinator(cfg, store, clock.System{}, replication.NewHTTPReplicator(), c.Sup)
	srv := httptest.NewServer(httpapi.NewLeaderServer(cfg, coord, store, c.Sup).Handler())
	c.Leader = &NodeHandle{ID: "leader", URL: srv.URL, Store: store, server: srv}

	return c
}

// Stop shuts every listener down.
func (c *Cluster) Stop() {
	c.Leader.server.Close()
	for _, f := range c.Followers {
		f.server.Close()
	}
}

// --- JSON client ---

// WriteResult mirrors the leader's write response.
type WriteResult struct {
	Success       bool   `json:"success"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	Confirmations int    `json:"confirmations"`
	Message       string `json:"message"`
}

// ReadResult mirrors the read response of either role.
type ReadResult struct {
	Key       string   `json:"key"`
	Value     *string  `json:"value"`
	Found     bool     `json:"found"`
	Timestamp *float64 `json:"timestamp"`
}

// ReplicateResult mirrors the follower's replicate response.
type ReplicateResult struct {
	Accepted   bool   `json:"accepted"`
	Applied    bool   `json:"applied"`
	Key        string `json:"key"`
	FollowerID string `json:"follower_id"`
	Message    string `json:"message"`
}

// Write issues a client write against this node.
func (n *NodeHandle) Write(key, value string) (WriteResult, error) {
	var out WriteResult
	err := n.postJSON("/write", map[string]string{"key": key, "value": value}, &out)
	return out, err
}

// Replicate issues a raw replication message against this node, as the
// leader would.
func (n *NodeHandle) Replicate(key, value string, timestamp float64) (ReplicateResult, error) {
	var out ReplicateResult
	err := n.postJSON("/replicate", map[string]interface{}{
		"key": key, "value": value, "timestamp": timestamp,
	}, &out)
	return out, err
}

// Read fetches a key from this node's local store.
func (n *NodeHandle) Read(key string) (ReadResult, error) {
	var out ReadResult
	err := n.getJSON("/read/"+key, &out)
	return out, err
}

// Keys lists this node's stored keys.
func (n *NodeHandle) Keys() ([]string, error) {
	var out struct {
		Keys []string `json:"keys"`
	}
	err := n.getJSON("/keys", &out)
	return out.Keys, err
}

// All returns this node's full key to value mapping.
func (n *NodeHandle) All() (map[string]string, error) {
	var out struct {
		Data map[string]string `json:"data"`
	}
	err := n.getJSON("/all", &out)
	return out.Data, err
}

// Health returns this node's health payload.
func (n *NodeHandle) Health() (map[string]interface{}, error) {
	var out map[string]interface{}
	err := n.getJSON("/health", &out)
	return out, err
}

// Clear wipes this node's store.
func (n *NodeHandle) Clear() error {
	req, err := http.NewRequest(http.MethodDelete, n.URL+"/clear", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear on %s: status %d", n.ID, resp.StatusCode)
	}
	return nil
}

func (n *NodeHandle) postJSON(path string, payload, dst interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(n.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s on %s: status %d", path, n.ID, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (n *NodeHandle) getJSON(path string, dst interface{}) error {
	resp, err := http.Get(n.URL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s on %s: status %d", path, n.ID, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
