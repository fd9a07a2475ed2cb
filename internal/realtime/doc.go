// Package realtime tracks live client connections and the ephemeral board
// state derived from them.
//
// The Registry owns every connection and its channel subscriptions. The
// PresenceTracker and EditLockTracker hold per-board presence sets and
// per-card advisory edit locks. The Router fans named events out to board
// and user channels through a Publisher.
//
// All state here is per process and never persisted. In a multi-instance
// deployment broadcasts can be relayed through a shared fabric (see package
// redisbus), but presence sets and edit locks stay local to the instance that
// owns the connection, so two instances may report different presence for the
// same board.
package realtime
