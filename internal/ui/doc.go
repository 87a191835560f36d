// Package ui is the Bubble Tea collections browser.
//
// The model never fetches on its own. Page navigation dispatches
// SET_CURRENT_PAGE and relies on the app's page watcher to load missing
// pages; opening a collection goes through the Controller. The model
// re-renders whenever the store signals a change through its subscription.
//
// Toasts added to the store are shown above the footer and removed after a
// few seconds or when dismissed with x.
package ui
