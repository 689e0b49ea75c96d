// Package quorum implements the semi-synchronous fan-out race: N
// concurrent replication attempts race a confirmation threshold, the
// caller returns as soon as the threshold is crossed, and a supervisor
// takes ownership of whatever is still in flight. Attempts are never
// cancelled once launched.
package quorum
