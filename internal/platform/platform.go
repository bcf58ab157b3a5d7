package platform

import (
	"context"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=platform.go -destination=mocks/mock.go

// Platform is the capability contract every adapter implements. The
// dispatcher is written against this interface only, never against a
// concrete adapter.
//
// Every domain.File flowing through GetFileContents or Post must have been
// produced by the same adapter instance; File.Raw is adapter-private.
type Platform interface {
	// Name identifies the platform in logs and credential keys.
	Name() string

	// Authenticate establishes a usable session. It is a no-op when a cached
	// credential is still valid; otherwise it runs the interactive
	// challenge/response flow. On failure the cached credential is left
	// untouched.
	Authenticate(ctx context.Context) error

	// GetSources lists places this identity can read from, excluding every
	// place present in GetDestinations. Ordering is not guaranteed.
	GetSources(ctx context.Context) ([]domain.Source, error)

	// GetDestinations lists places this identity may publish to.
	GetDestinations(ctx context.Context) ([]domain.Source, error)

	// GetPosts returns the newest posts of source, fully materialized across
	// however many backing pages the service required.
	GetPosts(ctx context.Context, source domain.Source) ([]domain.Post, error)

	// GetFileContents fetches the raw bytes of a file this adapter produced.
	GetFileContents(ctx context.Context, file domain.File) ([]byte, error)

	// Post publishes content under the destination identified by sourceID and
	// returns the new post's id. Files in content must be adapter-native,
	// obtained via this adapter's UploadFile.
	Post(ctx context.Context, sourceID string, content domain.PostContent) (int64, error)

	// UploadFile uploads raw bytes and returns a File usable in a subsequent
	// Post call on the same adapter.
	UploadFile(ctx context.Context, t domain.FileType, contents []byte) (domain.File, error)
}
