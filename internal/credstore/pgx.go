package credstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

var sqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PgxRepository keeps the credential mapping in a postgres table, still
// loaded and flushed wholesale like the file backend.
type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger

	mu     sync.Mutex
	values map[string]string
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger,
		values: make(map[string]string),
	}
}

func (r *PgxRepository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query, args, err := sqBuilder.
		Select("key", "value").
		From("credentials").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build credentials query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan credential row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating credential rows: %w", err)
	}

	r.values = values
	return nil
}

func (r *PgxRepository) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range r.values {
		query, args, err := sqBuilder.
			Insert("credentials").
			Columns("key", "value").
			Values(key, value).
			Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build credential upsert: %w", err)
		}

		if _, err := r.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to flush credential %s: %w", key, err)
		}
	}

	r.logger.Debug("Flushed credentials", "count", len(r.values))
	return nil
}

func (r *PgxRepository) Get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.values[key]
	return value, ok
}

func (r *PgxRepository) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
}

var _ Store = (*PgxRepository)(nil)
