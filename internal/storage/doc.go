// Package storage provides the local record store used identically by
// the leader and follower roles. Each record carries the wall-clock
// timestamp of the write that produced it; conflicting writes are
// resolved last-write-wins, so the stored timestamp for any key is the
// maximum ever applied on this node. Two nodes that eventually receive
// the same set of (key, timestamp, value) triples converge to the same
// mapping regardless of application order.
package storage
