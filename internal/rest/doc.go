// Package rest derives action types, async action creators and a reducer from
// a declarative resource Descriptor.
//
// For every verb V registered by a descriptor named "collectionsList" New
// derives:
//
//	REQUEST_COLLECTIONS_LIST_V
//	RECEIVE_COLLECTIONS_LIST_V_SUCCESS
//	RECEIVE_COLLECTIONS_LIST_V_FAILURE
//
// plus CLEAR_COLLECTIONS_LIST, which resets the slice to its initial state.
// The set of types is fixed when the endpoint is built; Reduce ignores
// anything else.
//
// Reducer transitions:
//
//	REQUEST  → Processing=true
//	SUCCESS  → Processing=false, Loaded=true, Error=nil, Data=op(payload, Data)
//	FAILURE  → Processing=false, Loaded=true, Error=payload
//
// The state slice is scoped to the resource, not to a request. Concurrent
// calls against the same resource resolve last-write-wins.
package rest
