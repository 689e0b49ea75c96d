package quorum

import (
	"context"
)

// Attempt performs one replication attempt against a single peer and
// reports whether the peer confirmed the write. Attempts must bound
// their own lifetime; Race never cancels them.
type Attempt func(ctx context.Context) bool

// Outcome is the result of racing a set of attempts against a
// confirmation threshold. Acks is a snapshot at the moment the
// threshold was crossed or all attempts resolved, whichever came first.
type Outcome struct {
	Success  bool
	Acks     int
	Required int
	Replicas int
	Detached int
}

// Race launches every attempt concurrently and consumes completions one
// at a time, counting confirmations, until either the required number
// of confirmations is reached or no attempts remain pending. It returns
// as soon as the threshold is crossed, without waiting for slower
// attempts; those are handed to sup and run to completion in the
// background.
//
// required <= 0 succeeds immediately with every attempt detached.
// required > len(attempts) can never succeed, but the attempts still
// run so replicas converge regardless.
func Race(ctx context.Context, attempts []Attempt, required int, sup *Supervisor) Outcome {
	n := len(attempts)
	out := Outcome{Required: required, Replicas: n}

	// Buffered so detached attempts never block on send.
	results := make(chan bool, n)
	for _, attempt := range attempts {
		attempt := attempt
		go func() {
			results <- attempt(ctx)
		}()
	}

	consumed := 0
	for out.Acks < required && consumed < n {
		if <-results {
			out.Acks++
		}
		consumed++
	}

	if remaining := n - consumed; remaining > 0 {
		sup.Adopt(results, remaining)
		out.Detached = remaining
	}

	out.Success = out.Acks >= required
	return out
}
