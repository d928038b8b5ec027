package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidEntry = errors.New("invalid entry")
	ErrInvalidWeek  = errors.New("invalid calendar week")
	ErrNoEntries    = errors.New("no logbook entries")
	ErrInvalidItem  = errors.New("invalid catalog item")
)
