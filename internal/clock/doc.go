// Package clock provides the timestamp source used to stamp writes for
// last-write-wins ordering. Timestamps are fractional Unix seconds drawn
// from the node's wall clock.
//
// Known limitation: wall clocks skew between processes. With a single
// fixed leader every stamp comes from one clock, so per-key ordering on
// any node is consistent; if multiple leaders existed, two writes could
// receive timestamps in inverted order relative to real time. This is
// not addressed here.
package clock
