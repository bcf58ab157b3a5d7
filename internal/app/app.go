package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexXanderGrib/post-copier/internal/captcha"
	"github.com/AlexXanderGrib/post-copier/internal/credstore"
	"github.com/AlexXanderGrib/post-copier/internal/dispatcher"
	"github.com/AlexXanderGrib/post-copier/internal/platform"
	"github.com/AlexXanderGrib/post-copier/internal/platform/telegram"
	"github.com/AlexXanderGrib/post-copier/internal/platform/vk"
	"github.com/AlexXanderGrib/post-copier/internal/prompt"
	"github.com/AlexXanderGrib/post-copier/internal/ratelimit"
	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"github.com/AlexXanderGrib/post-copier/pkg/pgx"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	credstore.Module,
	prompt.Module,
	captcha.Module,
	fx.Provide(
		func() ratelimit.Limiter {
			// VK allows 3 API calls per second for user tokens.
			return ratelimit.NewInMemoryLimiter(3, time.Second, 3)
		},
	),
	fx.Provide(
		fx.Annotate(
			vk.New,
			fx.As(new(platform.Platform)),
			fx.ResultTags(`name:"from"`),
		),
		fx.Annotate(
			telegram.New,
			fx.As(new(platform.Platform)),
			fx.ResultTags(`name:"to"`),
		),
		fx.Annotate(
			dispatcher.New,
			fx.ParamTags(`name:"from"`, `name:"to"`, ``),
		),
	),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, log logger.Logger, d *dispatcher.Dispatcher, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := copyOnce(context.Background(), log, d); err != nil {
					log.Error("Copy failed", "error", err)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

// copyOnce walks the operator through one migration: pick a source, a post
// and a destination, then copy.
func copyOnce(ctx context.Context, log logger.Logger, d *dispatcher.Dispatcher) error {
	if err := d.Authenticate(ctx); err != nil {
		return err
	}

	log.Info("Getting sources")
	sources, err := d.GetSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources available")
	}

	source, err := pickSource("Copy from", sources)
	if err != nil {
		return err
	}

	posts, err := d.GetPosts(ctx, source)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return fmt.Errorf("source %s has no posts", source.Title)
	}

	post, err := pickPost("Post to copy", posts)
	if err != nil {
		return err
	}

	destinations, err := d.GetDestinations(ctx)
	if err != nil {
		return err
	}
	if len(destinations) == 0 {
		return fmt.Errorf("no destinations available")
	}

	destination, err := pickSource("Copy to", destinations)
	if err != nil {
		return err
	}

	log.Info("Copying post", "post_id", post.ID, "source", source.Title, "destination", destination.Title)
	id, err := d.CopyPost(ctx, post, destination)
	if err != nil {
		return err
	}

	log.Info("Done", "new_post_id", id)
	return nil
}
