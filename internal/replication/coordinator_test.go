package replication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kvrep/internal/clock"
	"kvrep/internal/config"
	"kvrep/internal/quorum"
	"kvrep/internal/storage"
)

// fakeReplicator records calls and answers per-host.
type fakeReplicator struct {
	mu    sync.Mutex
	calls []string
	fn    func(host string) (bool, error)
}

func (f *fakeReplicator) Replicate(ctx context.Context, host, key, value string, timestamp float64) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, host)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(host)
	}
	return true, nil
}

func (f *fakeReplicator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig(followers []string, writeQuorum int) config.Config {
	return config.Config{
		Role:          config.RoleLeader,
		NodeID:        "leader",
		Port:          8000,
		FollowerHosts: followers,
		WriteQuorum:   writeQuorum,
	}
}

func TestCoordinator_WriteQuorumMet(t *testing.T) {
	store := storage.NewMemStore()
	sup := quorum.NewSupervisor()
	repl := &fakeReplicator{}
	coord := NewCoordinator(testConfig([]string{"f1", "f2", "f3"}, 2), store, clock.NewManual(100), repl, sup)

	out := coord.Write(context.Background(), "k", "v1")

	if !out.Success {
		t.Errorf("Expected success, got %+v", out)
	}
	if out.Confirmations < 2 {
		t.Errorf("Expected at least 2 confirmations, got %d", out.Confirmations)
	}
	if out.Key != "k" || out.Value != "v1" {
		t.Errorf("Expected echoed key/value, got %+v", out)
	}
}

func TestCoordinator_LocalApplyBeforeReplication(t *testing.T) {
	store := storage.NewMemStore()
	sup := quorum.NewSupervisor()
	src := clock.NewManual(100)
	repl := &fakeReplicator{fn: func(string) (bool, error) { return false, errors.New("down") }}
	coord := NewCoordinator(testConfig([]string{"f1"}, 1), store, src, repl, sup)

	out := coord.Write(context.Background(), "k", "v1")

	if out.Success {
		t.Error("Expected failure with all followers down")
	}
	rec, ok := store.Get("k")
	if !ok || rec.Value != "v1" || rec.Timestamp != 100 {
		t.Errorf("Expected durable local write stamped at 100, got %+v found=%v", rec, ok)
	}
}

func TestCoordinator_SuccessEqualsConfirmationsGEQQuorum(t *testing.T) {
	tests := []struct {
		name      string
		followers int
		upHosts   map[string]bool
		writeQ    int
		want      bool
	}{
		{"all up, quorum 2 of 3", 3, map[string]bool{"f1": true, "f2": true, "f3": true}, 2, true},
		{"one up, quorum 2 of 3", 3, map[string]bool{"f1": true}, 2, false},
		{"none up, quorum 1 of 3", 3, nil, 1, false},
		{"quorum 0 always succeeds", 3, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts := make([]string, 0, tt.followers)
			for _, h := range []string{"f1", "f2", "f3"}[:tt.followers] {
				hosts = append(hosts, h)
			}
			repl := &fakeReplicator{fn: func(host string) (bool, error) {
				if tt.upHosts[host] {
					return true, nil
				}
				return false, errors.New("connection refused")
			}}
			sup := quorum.NewSupervisor()
			coord := NewCoordinator(testConfig(hosts, tt.writeQ), storage.NewMemStore(), clock.NewManual(1), repl, sup)

			out := coord.Write(context.Background(), "k", "v")

			if out.Success != tt.want {
				t.Errorf("Success = %v, want %v (%+v)", out.Success, tt.want, out)
			}
			if out.Success != (out.Confirmations >= tt.writeQ) {
				t.Errorf("Invariant violated: success=%v confirmations=%d quorum=%d",
					out.Success, out.Confirmations, tt.writeQ)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := sup.Wait(ctx); err != nil {
				t.Fatalf("Supervisor did not drain: %v", err)
			}
		})
	}
}

func TestCoordinator_UnreachableQuorum(t *testing.T) {
	repl := &fakeReplicator{}
	sup := quorum.NewSupervisor()
	coord := NewCoordinator(testConfig([]string{"f1", "f2", "f3"}, 10), storage.NewMemStore(), clock.NewManual(1), repl, sup)

	out := coord.Write(context.Background(), "k", "v")

	if out.Success {
		t.Error("Expected success=false when quorum exceeds follower count")
	}
	if out.Confirmations > 3 {
		t.Errorf("Confirmations %d exceed follower count", out.Confirmations)
	}
	if repl.callCount() != 3 {
		t.Errorf("Expected replication to all 3 followers anyway, got %d calls", repl.callCount())
	}
}

func TestCoordinator_ReturnsBeforeSlowFollowers(t *testing.T) {
	slow := make(chan struct{})
	repl := &fakeReplicator{fn: func(host string) (bool, error) {
		if host != "fast" {
			<-slow
		}
		return true, nil
	}}
	sup := quorum.NewSupervisor()
	store := storage.NewMemStore()
	coord := NewCoordinator(testConfig([]string{"fast", "slow1", "slow2"}, 1), store, clock.NewManual(1), repl, sup)

	done := make(chan WriteOutcome, 1)
	go func() { done <- coord.Write(context.Background(), "k", "v") }()

	var out WriteOutcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked on slow followers")
	}

	if !out.Success || out.Confirmations < 1 {
		t.Errorf("Expected quorum from the fast follower, got %+v", out)
	}

	// The detached attempts keep running and settle under the supervisor.
	close(slow)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Wait(ctx); err != nil {
		t.Fatalf("Detached attempts did not finish: %v", err)
	}
	if stats := sup.Stats(); stats.Confirmed+int64(out.Confirmations) != 3 {
		t.Errorf("Expected 3 total confirmations across race and supervisor, got race=%d detached=%+v",
			out.Confirmations, stats)
	}
}

// ctxErrReplicator waits until released, then reports the context
// error it observed, so the test can tell whether the caller's
// cancellation reached a detached attempt.
type ctxErrReplicator struct {
	release chan struct{}
	seen    chan error
}

func (r *ctxErrReplicator) Replicate(ctx context.Context, host, key, value string, timestamp float64) (bool, error) {
	<-r.release
	r.seen <- ctx.Err()
	return true, nil
}

func TestCoordinator_DetachedAttemptsSurviveCallerCancel(t *testing.T) {
	repl := &ctxErrReplicator{release: make(chan struct{}), seen: make(chan error, 1)}
	sup := quorum.NewSupervisor()
	coord := NewCoordinator(testConfig([]string{"f1"}, 0), storage.NewMemStore(), clock.NewManual(1), repl, sup)

	ctx, cancel := context.WithCancel(context.Background())
	out := coord.Write(ctx, "k", "v")
	if !out.Success {
		t.Fatalf("Expected immediate success with quorum 0, got %+v", out)
	}

	// Cancel the caller before the detached attempt runs.
	cancel()
	close(repl.release)

	select {
	case err := <-repl.seen:
		if err != nil {
			t.Errorf("Detached attempt saw caller cancellation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Detached attempt never ran")
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := sup.Wait(waitCtx); err != nil {
		t.Fatalf("Supervisor did not drain: %v", err)
	}
}

func TestCoordinator_TimestampsComeFromClock(t *testing.T) {
	store := storage.NewMemStore()
	src := clock.NewManual(1000)
	sup := quorum.NewSupervisor()
	coord := NewCoordinator(testConfig(nil, 0), store, src, &fakeReplicator{}, sup)

	coord.Write(context.Background(), "k", "first")
	src.Advance(1)
	coord.Write(context.Background(), "k", "second")

	rec, _ := store.Get("k")
	if rec.Value != "second" || rec.Timestamp != 1001 {
		t.Errorf("Expected second write at ts 1001, got %+v", rec)
	}
}

func TestCoordinator_DelayWithinBounds(t *testing.T) {
	cfg := testConfig([]string{"f1"}, 1)
	cfg.MinDelayMs = 10
	cfg.MaxDelayMs = 20
	coord := NewCoordinator(cfg, storage.NewMemStore(), clock.NewManual(1), &fakeReplicator{}, quorum.NewSupervisor())

	for i := 0; i < 100; i++ {
		d := coord.delay()
		if d < 10*time.Millisecond || d > 20*time.Millisecond {
			t.Fatalf("Delay %s outside [10ms, 20ms]", d)
		}
	}
}
