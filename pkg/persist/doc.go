// Package persist saves and restores a single application snapshot through a
// pluggable key-value Backend, enforcing a time-to-live and healing itself on
// corrupted or expired payloads.
//
// Responsibilities:
//   - Backend only stores/retrieves an opaque payload for a key.
//   - Adapter[T] owns serialization, the timestamp/snapshot-id envelope keys,
//     TTL enforcement, and purge-on-corruption. Save frequency policy
//     (debouncing) stays with the caller; the adapter persists every call.
//
// Failure posture: storage and parse failures are logged through the
// configured Logger and reported as an absent snapshot. Nothing in this
// package panics or escalates a storage fault to the application; an expired
// or undecodable snapshot is deleted as a side effect of reading it.
//
// Layout: the snapshot is stored as a flat JSON object with the snapshot
// fields at top level plus `timestamp` (epoch millis) and `snapshotId`
// siblings, so payloads written by earlier versions of the application remain
// readable.
package persist
