package replication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Per-call timeout governing each replication attempt's lifetime.
const replicateTimeout = 10 * time.Second

// Replicator sends one replicated write to a follower.
type Replicator interface {
	// Replicate reports whether the follower confirmed the write. Any
	// transport failure or non-OK status is an error; the caller counts
	// it as an unconfirmed attempt and never retries.
	Replicate(ctx context.Context, host, key, value string, timestamp float64) (bool, error)
}

// HTTPReplicator replicates over the followers' HTTP surface. One
// shared client reuses connections across attempts.
type HTTPReplicator struct {
	client *http.Client
}

// NewHTTPReplicator creates a replicator with the default per-call timeout.
func NewHTTPReplicator() *HTTPReplicator {
	return &HTTPReplicator{client: &http.Client{Timeout: replicateTimeout}}
}

type replicateRequest struct {
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	Timestamp float64 `json:"timestamp"`
}

// Replicate posts the write to the follower's /replicate endpoint.
func (r *HTTPReplicator) Replicate(ctx context.Context, host, key, value string, timestamp float64) (bool, error) {
	body, err := json.Marshal(replicateRequest{Key: key, Value: value, Timestamp: timestamp})
	if err != nil {
		return false, fmt.Errorf("failed to encode replicate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, replicateURL(host), bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build replicate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach %s: %w", host, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("follower %s returned status %d", host, resp.StatusCode)
	}
	return true, nil
}

func replicateURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + "/replicate"
	}
	return "http://" + host + "/replicate"
}
