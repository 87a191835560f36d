// Package pagination caches the paginated collection list page by page.
//
// Each page number moves through:
//
//	absent ──REQUEST_GET_PAGE──> LOADING ──SUCCESS──> LOADED
//	                                    └──FAILURE──> ERROR
//
// A failure keeps whatever collections the entry already held. Success
// overwrites the resource-wide Count and NumPages, so when two pages load
// concurrently the last response wins.
//
// CurrentPage only changes through SET_CURRENT_PAGE. Selecting a page does
// not fetch it; the caller checks NeedsFetch and calls GetPage (cache-aside).
// Entries are never evicted or refreshed.
package pagination
