package state

import "maps"

// Settings is the per-session configuration threaded through the store:
// identity of the signed-in user, service location and feature flags.
type Settings struct {
	BaseURL    string
	UserEmail  string
	IsAppAdmin bool
	Editable   bool
	Features   map[string]bool
}

// Feature reports whether the named flag is enabled.
func (s Settings) Feature(name string) bool {
	return s.Features[name]
}

func (s Settings) clone() Settings {
	s.Features = maps.Clone(s.Features)
	return s
}
