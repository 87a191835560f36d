// Package state composes the resource, pagination and toast reducers into a
// single root store.
//
// # Dispatch
//
// Store.Dispatch runs an action through the middleware chain and then the
// root reducer while holding the store's write lock, so reducers never
// interleave. Fetches run outside the lock in the goroutines started by
// action.Run and re-enter through Dispatch when they finish.
//
//	caller ──Dispatch──▶ Logger ──▶ Metrics ──▶ custom ──▶ root reducer
//	                                                         │
//	subscribers ◀──────────── coalesced signal ◀─────────────┘
//
// # Snapshots
//
// Reducers replace the values they own instead of mutating them, so a
// Snapshot can be handed out without copying. Readers must not modify the
// maps or slices they receive.
//
// # Subscriptions
//
// Subscribe returns a channel with a one-slot buffer. A burst of dispatches
// between two reads yields a single signal; subscribers always read the
// latest Snapshot after waking up.
package state
