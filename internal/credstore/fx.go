package credstore

import (
	"context"
	"fmt"

	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Logger logger.Logger
	Pool   *pgxpool.Pool `optional:"true"`
}

// New selects the backend from config and binds the store's load/flush to
// the application lifecycle.
func New(opts Opts) (Store, error) {
	var store Store

	switch backend := opts.Config.Credentials.Backend; backend {
	case "file":
		store = NewFileStore(opts.Config.Credentials.Path)
	case "postgres":
		if opts.Pool == nil {
			return nil, fmt.Errorf("%w: postgres backend requires a pool", ErrUnknownBackend)
		}
		store = NewPgxRepository(opts.Pool, opts.Logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Load(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return store.Flush(ctx)
		},
	})

	return store, nil
}

var Module = fx.Provide(New)
