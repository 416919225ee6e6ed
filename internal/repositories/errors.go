package repositories

import "errors"

// ErrNotFound is wrapped by every repository when a lookup by key matches no
// row, so callers can classify failures with errors.Is instead of matching
// error strings.
var ErrNotFound = errors.New("record not found")
