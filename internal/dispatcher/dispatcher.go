// Package dispatcher orchestrates copying posts between two platforms. It is
// written against the platform capability only and never inspects
// adapter-private state.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/internal/platform"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Dispatcher moves posts from the From platform to the To platform.
type Dispatcher struct {
	From   platform.Platform
	To     platform.Platform
	Logger logger.Logger
}

func New(from, to platform.Platform, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		From:   from,
		To:     to,
		Logger: log,
	}
}

// Swap returns an equivalent dispatcher with the direction reversed. Pure:
// neither dispatcher holds state beyond its two sides.
func (d *Dispatcher) Swap() *Dispatcher {
	return New(d.To, d.From, d.Logger)
}

// Authenticate establishes sessions on both sides concurrently. Either
// failure makes the dispatcher unusable; there is no partial-success state.
func (d *Dispatcher) Authenticate(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, p := range []platform.Platform{d.From, d.To} {
		p := p
		g.Go(func() error {
			if err := p.Authenticate(ctx); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) GetSources(ctx context.Context) ([]domain.Source, error) {
	return d.From.GetSources(ctx)
}

func (d *Dispatcher) GetDestinations(ctx context.Context) ([]domain.Source, error) {
	return d.To.GetDestinations(ctx)
}

func (d *Dispatcher) GetPosts(ctx context.Context, source domain.Source) ([]domain.Post, error) {
	return d.From.GetPosts(ctx, source)
}

// CopyPost re-publishes post under destination on the To platform and
// returns the new post's id.
//
// Files transfer in parallel with each other, but each file's download
// completes before its own upload begins. The first failure aborts the whole
// copy and no destination post is created; files already uploaded in the
// failed attempt are left orphaned on the destination (no cleanup is
// attempted).
func (d *Dispatcher) CopyPost(ctx context.Context, post domain.Post, destination domain.Source) (int64, error) {
	files := make([]domain.File, len(post.Files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range post.Files {
		i, file := i, file
		g.Go(func() error {
			contents, err := d.From.GetFileContents(gctx, file)
			if err != nil {
				return fmt.Errorf("file %s: %w", file.ID, err)
			}

			uploaded, err := d.To.UploadFile(gctx, file.Type, contents)
			if err != nil {
				return fmt.Errorf("file %s: %w", file.ID, err)
			}

			// Indexed writes keep the original display order regardless of
			// completion order.
			files[i] = uploaded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	id, err := d.To.Post(ctx, destination.ID, domain.PostContent{
		Text:  post.Text,
		Files: files,
	})
	if err != nil {
		return 0, err
	}

	d.Logger.Info("Copied post",
		"from", d.From.Name(),
		"to", d.To.Name(),
		"post_id", post.ID,
		"new_post_id", id,
		"files", len(files),
	)
	return id, nil
}
