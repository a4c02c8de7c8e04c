package credentials

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/fmuoria/career-bot/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps credentials in a SQLite table keyed by identifier
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the database at path and
// applies pending migrations.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection avoids "database is locked" on concurrent inserts.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Load returns all records in insertion order
func (s *SQLiteStore) Load(ctx context.Context) ([]models.Credential, error) {
	const query = `SELECT identifier, password FROM credentials ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var records []models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(&c.Identifier, &c.Password); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return records, nil
}

// Get returns the stored password for identifier
func (s *SQLiteStore) Get(ctx context.Context, identifier string) (string, bool, error) {
	const query = `SELECT password FROM credentials WHERE identifier = ?`
	var password string
	err := s.db.QueryRowContext(ctx, query, identifier).Scan(&password)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get credential %q: %w", identifier, err)
	}
	return password, true, nil
}

// PutIfAbsent inserts the pair unless identifier is already present
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, identifier, password string) (bool, error) {
	const query = `INSERT OR IGNORE INTO credentials (identifier, password) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, query, identifier, password)
	if err != nil {
		return false, fmt.Errorf("insert credential %q: %w", identifier, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert credential %q: %w", identifier, err)
	}
	return n == 1, nil
}

// Verify reports whether a row matches both identifier and password
func (s *SQLiteStore) Verify(ctx context.Context, identifier, password string) (bool, error) {
	const query = `SELECT COUNT(1) FROM credentials WHERE identifier = ? AND password = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, query, identifier, password).Scan(&n); err != nil {
		return false, fmt.Errorf("verify credential %q: %w", identifier, err)
	}
	return n > 0, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
