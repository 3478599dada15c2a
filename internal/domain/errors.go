package domain

import "errors"

// ErrNotFound is returned by store lookups and updates that match no row.
var ErrNotFound = errors.New("not found")
