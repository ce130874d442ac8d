package backend

import (
	"context"

	"nutrihelper/internal/session"
	"nutrihelper/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the session store and its cleanup function.
type StoreResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// Factory creates the storage-side dependencies from configuration.
type Factory interface {
	// CreateStore returns the session store for the configured backend type.
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	// CreateExporter returns the Google Sheets exporter when a spreadsheet is
	// configured and an in-memory exporter otherwise.
	CreateExporter(ctx context.Context, config Config) (sheets.TotalsExporter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string
}

// BackendType selects where sessions are kept.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
