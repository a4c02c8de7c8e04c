// Package credentials persists login identifier/password pairs behind a
// small key-value interface. Three backends are available: a two-column CSV
// file, the same table inside an xlsx workbook, and a SQLite database.
package credentials

import (
	"context"
	"fmt"

	"github.com/fmuoria/career-bot/internal/config"
	"github.com/fmuoria/career-bot/internal/models"
)

// Store is the storage port used by Service. Implementations compare
// identifiers and passwords byte for byte.
type Store interface {
	// Load returns every record in insertion order, creating an empty
	// backing store first if none exists.
	Load(ctx context.Context) ([]models.Credential, error)

	// Get returns the password of the first record with identifier.
	Get(ctx context.Context, identifier string) (string, bool, error)

	// PutIfAbsent inserts the pair unless identifier is already stored.
	// It reports whether a record was inserted.
	PutIfAbsent(ctx context.Context, identifier, password string) (bool, error)

	// Verify reports whether a record matches both fields exactly.
	Verify(ctx context.Context, identifier, password string) (bool, error)

	Close() error
}

// Open returns the Store for the named backend
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case config.BackendCSV:
		return NewCSVStore(path), nil
	case config.BackendXLSX:
		return NewXLSXStore(path), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", backend)
	}
}
