package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/fmuoria/career-bot/internal/models"
)

// ErrControlCharacter is returned when an identifier or password holds a
// control character. The file backends cannot round-trip CR or other
// control bytes, so such values are refused on every backend.
var ErrControlCharacter = errors.New("email/phone and password must not contain control characters")

// Service implements the login gate on top of a Store: load, register,
// authenticate and password lookup. Identifiers and passwords are compared
// exactly, with no hashing or normalization.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a credential service
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Load returns every stored record
func (s *Service) Load(ctx context.Context) ([]models.Credential, error) {
	return s.store.Load(ctx)
}

// Register stores the pair if identifier is new. Registering an existing
// identifier is a silent no-op: the first password wins.
func (s *Service) Register(ctx context.Context, identifier, password string) error {
	if hasControl(identifier) {
		return fmt.Errorf("%w: identifier", ErrControlCharacter)
	}
	if hasControl(password) {
		return fmt.Errorf("%w: password", ErrControlCharacter)
	}

	inserted, err := s.store.PutIfAbsent(ctx, identifier, password)
	if err != nil {
		return err
	}
	if inserted {
		s.logger.Info("credential registered", "identifier", identifier)
	} else {
		s.logger.Debug("credential already registered", "identifier", identifier)
	}
	return nil
}

// Authenticate reports whether a record matches both fields exactly
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (bool, error) {
	return s.store.Verify(ctx, identifier, password)
}

// LookupPassword returns the stored password for identifier, if any
func (s *Service) LookupPassword(ctx context.Context, identifier string) (string, bool, error) {
	return s.store.Get(ctx, identifier)
}

// Close releases the underlying store
func (s *Service) Close() error {
	return s.store.Close()
}

func hasControl(v string) bool {
	return strings.IndexFunc(v, unicode.IsControl) >= 0
}
