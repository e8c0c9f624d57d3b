// Package repository implements the SQL link store on top of database/sql.
// PostgreSQL is reached through the pgx stdlib driver, SQLite through
// modernc.org/sqlite. Both rely on the slug primary key for uniqueness.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/atinyakov/amethyst/internal/storage"
)

// Supported driver names, as registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS links (
	slug TEXT PRIMARY KEY,
	destination TEXT NOT NULL
);`

type dialect struct {
	insert     string
	findBySlug string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		insert:     "INSERT INTO links(slug, destination) VALUES ($1, $2);",
		findBySlug: "SELECT slug, destination FROM links WHERE slug = $1;",
	},
	DriverSQLite: {
		insert:     "INSERT INTO links(slug, destination) VALUES (?, ?);",
		findBySlug: "SELECT slug, destination FROM links WHERE slug = ?;",
	},
}

// InitDB opens the database, checks the connection and makes sure the links
// table exists.
func InitDB(ctx context.Context, driver, dsn string, logger *zap.Logger) (*sql.DB, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create links table: %w", err)
	}

	logger.Info("Database connected and table ready.", zap.String("driver", driver))
	return db, nil
}

type LinkRepository struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func CreateLinkRepository(db *sql.DB, driver string, logger *zap.Logger) *LinkRepository {
	d, ok := dialects[driver]
	if !ok {
		d = dialects[DriverPostgres]
	}

	return &LinkRepository{
		db:      db,
		dialect: d,
		logger:  logger,
	}
}

func (r *LinkRepository) Insert(ctx context.Context, slug, destination string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.insert, slug, destination)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrSlugTaken
		}

		r.logger.Error("insert link", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (r *LinkRepository) FindBySlug(ctx context.Context, slug string) (*storage.Link, error) {
	var l storage.Link

	err := r.db.QueryRowContext(ctx, r.dialect.findBySlug, slug).Scan(&l.Slug, &l.Destination)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		r.logger.Error("find link", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("find link: %w", err)
	}

	return &l, nil
}

func (r *LinkRepository) PingContext(c context.Context) error {
	return r.db.PingContext(c)
}

func (r *LinkRepository) Close() error {
	return r.db.Close()
}

// isUniqueViolation recognises duplicate key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var sqliteErr interface{ Code() int }
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return false
}
