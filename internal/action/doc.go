// Package action defines the messages dispatched to the odlv store and the
// Task primitive that replaces thunk-style async action creators.
//
// # Three-phase protocol
//
// Every asynchronous fetch follows the same protocol:
//
//	Run(ctx, store, lifecycle)
//	  ├─> Dispatch(Request)          synchronous, before Run returns
//	  └─> go Fetch(ctx)
//	        ├─ ok  → Dispatch(Success(payload))
//	        └─ err → Dispatch(Failure(err))
//
// The request action always reaches the store before the terminal action of
// the same call. Nothing orders concurrent calls against each other: a later
// request may land before an earlier call's success, and the reducers apply
// last-write-wins.
//
// There are no retries. A failed fetch is terminal and the caller decides
// whether to call again.
package action
