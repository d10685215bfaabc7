package api

import "time"

// resolveLocation maps a caller-supplied IANA zone name to a location,
// falling back to the configured default on empty or unknown names instead
// of failing the request.
func resolveLocation(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
