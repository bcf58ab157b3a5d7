// Package credstore persists one opaque string value per named key across
// process runs. Adapters use it to remember session tokens; each key is
// owned by exactly one adapter for the lifetime of a run.
package credstore

import (
	"context"
	"errors"
)

var ErrUnknownBackend = errors.New("unknown credential store backend")

//go:generate go run go.uber.org/mock/mockgen -source=credstore.go -destination=mocks/mock.go

// Store is a wholesale-loaded, wholesale-flushed string mapping. Load is
// called once at startup, Flush once at shutdown; last writer for a key wins.
type Store interface {
	Load(ctx context.Context) error
	Flush(ctx context.Context) error

	Get(key string) (string, bool)
	Set(key, value string)
}
