package storage

import "errors"

// ErrNotFound marks lookups of IDs with no stored entity behind them.
// Callers match it with errors.Is; the API layer maps it to 404.
var ErrNotFound = errors.New("not found")
