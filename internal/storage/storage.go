package storage

import (
	"context"
	"os"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/storage/sqlite"
	"github.com/steveyegge/sleuth/internal/types"
)

// Storage defines the interface for investigation storage backends
type Storage interface {
	// Investigations
	CreateInvestigation(ctx context.Context, inv *types.Investigation) error
	FinishInvestigation(ctx context.Context, inv *types.Investigation) error
	GetInvestigation(ctx context.Context, id string) (*types.Investigation, error)
	ListInvestigations(ctx context.Context, limit int) ([]*types.Investigation, error)

	// Lab log
	RecordResult(ctx context.Context, entry *types.LabEntry) error
	GetLabLog(ctx context.Context, investigationID string) ([]*types.LabEntry, error)

	// Events
	StoreEvent(ctx context.Context, event *events.Event) error
	GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.Event, error)

	// Event Cleanup - retention policy enforcement
	CleanupEventsByAge(ctx context.Context, retentionDays, errorRetentionDays, batchSize int) (int, error)
	CleanupEventsByInvestigationLimit(ctx context.Context, limit, batchSize int) (int, error)
	GetEventCounts(ctx context.Context) (*sqlite.EventCounts, error)
	VacuumDatabase(ctx context.Context) error

	// Lifecycle
	Close() error
}

var _ events.EventStore = (Storage)(nil)

// DefaultPath is where the database lives relative to a project root.
const DefaultPath = ".sleuth/sleuth.db"

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: SLEUTH_DB_PATH, else ".sleuth/sleuth.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults.
// SLEUTH_DB_PATH overrides the default path.
func DefaultConfig() *Config {
	if path := os.Getenv("SLEUTH_DB_PATH"); path != "" {
		return &Config{Path: path}
	}
	return &Config{Path: DefaultPath}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}

	db, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, err
	}
	return db, nil
}
