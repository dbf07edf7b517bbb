package stagedb

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
	"stagedb/internal/staging"
)

// Options configures a store.
type Options struct {
	// Backend selects the dialect: "sqlite" (default) or "postgres".
	Backend string
	// URL is the file path (sqlite) or connection URL (postgres).
	URL string
	// User is recorded on commits and id allocations and woven into the
	// session diff-table prefix.
	User string
	// Strict makes the first integrity violation abort a staged batch
	// instead of collecting per-item errors.
	Strict bool
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Store is a handle on one physical database. It is safe for concurrent use;
// each mutating caller opens its own Session.
type Store struct {
	db     *sql.DB
	d      dialect.Dialect
	log    *zap.Logger
	user   string
	strict bool
}

// Open connects to the store and pings it. It does not create or verify the
// schema; call CreateSchema for a fresh database or Verify against an
// existing one.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := dialect.New(opts.Backend)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open(d.DriverName(), d.DSN(opts.URL))
	if err != nil {
		return nil, &ConnectionError{URL: opts.URL, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{URL: opts.URL, Err: err}
	}
	user := opts.User
	if user == "" {
		user = "anon"
	}
	log.Debug("store opened",
		zap.String("backend", d.Name()),
		zap.String("user", user),
	)
	return &Store{db: db, d: d, log: log, user: user, strict: opts.Strict}, nil
}

// CreateSchema creates the canonical tables, the next_id counter table and
// the seed rows. Idempotent: existing tables and seeds are left alone.
func (s *Store) CreateSchema(ctx context.Context) error {
	stmts := schema.CreateDDL(s.d)
	stmts = append(stmts, schema.SeedDML(s.d)...)
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.log.Info("schema created", zap.String("backend", s.d.Name()))
	return nil
}

// Verify probes every canonical table and returns a *SchemaError listing all
// the missing ones at once.
func (s *Store) Verify(ctx context.Context) error {
	return schema.Verify(ctx, s.db, s.d)
}

// NewSession opens a staging session on a dedicated connection.
func (s *Store) NewSession(ctx context.Context) (*Session, error) {
	area, err := staging.New(ctx, s.db, s.d, s.user, s.strict, s.log)
	if err != nil {
		return nil, err
	}
	return &Session{store: s, area: area, log: s.log}, nil
}

// Close releases the connection pool. Open sessions must be closed first.
func (s *Store) Close() error { return s.db.Close() }
