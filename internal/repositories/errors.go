package repositories

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
// Callers should test for it with errors.Is; implementations wrap it
// with enough context to identify the missing record.
var ErrNotFound = errors.New("record not found")
