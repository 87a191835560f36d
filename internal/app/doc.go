// Package app is the composition root of odlv.
//
// New loads the configuration and preferences, configures logging and wires
// the pieces together:
//
//	config.Load ──▶ odl.NewClient ──▶ resources.New ──▶ state.New
//	                                                     │
//	                      metrics.New ───────────────────┘
//
// The App then drives the store on behalf of its consumers:
//
//   - Bootstrap loads the current collections page, potential owners and edX
//     endpoints in parallel.
//   - SelectPage changes the current page and fetches it if it is not cached.
//   - WatchCurrentPage runs a background loop that does the same whenever the
//     store changes, so any code that dispatches SET_CURRENT_PAGE gets the
//     page loaded.
//   - DeleteSubtitle deletes a subtitle and confirms it with a toast.
//
// Run starts the page watcher and the optional debug server, then blocks in
// the terminal browser until the user quits or the context is cancelled.
package app
