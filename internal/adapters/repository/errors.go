package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("entry not found")
	ErrExists   = errors.New("entry already exists")
	ErrClosed   = errors.New("store closed")
)
