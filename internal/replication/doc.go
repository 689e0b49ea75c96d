// Package replication holds the two replication roles: the leader-side
// Coordinator, which stamps writes and fans them out to a fixed
// follower set under a semi-synchronous quorum, and the follower-side
// Applier, which merges incoming writes last-write-wins. The follower
// set, quorum, and simulated delay bounds are fixed for the life of the
// process.
package replication
