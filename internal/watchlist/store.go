// Package watchlist persists the set of movie IDs the user marked for later
// viewing. SQLite is the default on-device backend; PostgreSQL is supported
// for shared deployments.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/vadimtrunov/CineShelf/internal/core"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS watchlist (
	movie_id INTEGER PRIMARY KEY,
	added_at TIMESTAMP NOT NULL
)`

// Store is a sqlx-backed core.WatchlistStore.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ core.WatchlistStore = (*Store)(nil)

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}
	s, err := New(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema is not created.
func New(db *sqlx.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create watchlist schema: %w", translate(err))
	}
	return nil
}

// Add stores movieID. Adding an id that is already present is a no-op.
func (s *Store) Add(ctx context.Context, movieID int) error {
	query := s.db.Rebind(`INSERT INTO watchlist (movie_id, added_at) VALUES (?, ?)
		ON CONFLICT (movie_id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query, movieID, s.now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "watchlist add failed",
			slog.Int("movie_id", movieID), slog.String("error", err.Error()))
		return fmt.Errorf("add %d: %w", movieID, translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.DebugContext(ctx, "movie already on watchlist", slog.Int("movie_id", movieID))
	}
	return nil
}

// Remove deletes movieID. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, movieID int) error {
	query := s.db.Rebind(`DELETE FROM watchlist WHERE movie_id = ?`)
	res, err := s.db.ExecContext(ctx, query, movieID)
	if err != nil {
		s.logger.ErrorContext(ctx, "watchlist remove failed",
			slog.Int("movie_id", movieID), slog.String("error", err.Error()))
		return fmt.Errorf("remove %d: %w", movieID, translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.DebugContext(ctx, "movie not on watchlist", slog.Int("movie_id", movieID))
	}
	return nil
}

// ListAll returns every stored id.
func (s *Store) ListAll(ctx context.Context) (core.IDSet, error) {
	var ids []int
	if err := s.db.SelectContext(ctx, &ids, `SELECT movie_id FROM watchlist`); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", translate(err))
	}
	return core.NewIDSet(ids...), nil
}

// Contains reports whether movieID is stored.
func (s *Store) Contains(ctx context.Context, movieID int) (bool, error) {
	var n int
	query := s.db.Rebind(`SELECT COUNT(*) FROM watchlist WHERE movie_id = ?`)
	if err := s.db.GetContext(ctx, &n, query, movieID); err != nil {
		return false, fmt.Errorf("contains %d: %w", movieID, translate(err))
	}
	return n > 0, nil
}
