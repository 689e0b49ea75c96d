package quorum

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of detached-attempt bookkeeping. The counters are
// best-effort diagnostics; write outcomes never depend on them.
type Stats struct {
	Adopted   int64
	Completed int64
	Confirmed int64
}

// Supervisor owns replication attempts whose results are no longer
// awaited by the caller that issued them. Once a Race returns, its
// leftover completions are adopted here and drained in the background,
// making the fire-and-forget handoff explicit rather than leaking
// ownerless goroutines.
type Supervisor struct {
	wg        sync.WaitGroup
	adopted   atomic.Int64
	completed atomic.Int64
	confirmed atomic.Int64
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// Adopt takes ownership of the given number of pending completions on
// results. It returns immediately; draining happens in the background.
func (s *Supervisor) Adopt(results <-chan bool, remaining int) {
	if remaining <= 0 {
		return
	}
	s.adopted.Add(int64(remaining))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for i := 0; i < remaining; i++ {
			confirmed := <-results
			s.completed.Add(1)
			if confirmed {
				s.confirmed.Add(1)
			}
		}
	}()
}

// Stats returns the current counters.
func (s *Supervisor) Stats() Stats {
	return Stats{
		Adopted:   s.adopted.Load(),
		Completed: s.completed.Load(),
		Confirmed: s.confirmed.Load(),
	}
}

// Wait blocks until every adopted attempt has completed or the context
// is done. Used by graceful shutdown and tests.
func (s *Supervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
