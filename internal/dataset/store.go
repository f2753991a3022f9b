// Package dataset stores scraped investor records in append-only named datasets.
//
// Datasets live in SQLite by default (one file under the configured directory)
// or in PostgreSQL when a DSN is configured. Items keep their insertion order.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/williampepple1/openvc-scraper/internal/config"
)

// FileName is the SQLite database file inside the dataset directory
const FileName = "datasets.db"

// ErrNotFound is returned when a dataset id or name does not exist.
var ErrNotFound = errors.New("dataset not found")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store owns the database connection shared by all datasets
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Info describes a dataset
type Info struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"-" json:"createdAt"`
	ItemCount int       `db:"item_count" json:"itemCount"`

	CreatedRaw string `db:"created_at" json:"-"`
}

// Open opens or creates the dataset store described by cfg
func Open(cfg config.DatasetConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = sqlx.Open("postgres", cfg.DSN)
		if err == nil {
			err = db.Ping()
		}
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDatasetDriver, cfg.Driver)
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to open dataset store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func openSQLite(cfg config.DatasetConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create dataset directory: %w", err)
		}
		dsn = filepath.Join(cfg.Dir, FileName) + "?mode=rwc"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			return db, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dataset_items (
			dataset_id TEXT NOT NULL REFERENCES datasets(id),
			seq BIGINT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (dataset_id, seq)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Dataset opens the dataset with the given name, creating it if needed
func (s *Store) Dataset(ctx context.Context, name string) (*Dataset, error) {
	ds, err := s.byColumn(ctx, "name", name)
	if err == nil {
		return ds, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO datasets (id, name, created_at) VALUES (?, ?, ?)`),
		id, name, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %q: %w", name, err)
	}
	s.logger.Debug("dataset created", zap.String("name", name), zap.String("id", id))

	return &Dataset{store: s, id: id, name: name}, nil
}

// Lookup finds an existing dataset by id, falling back to its name
func (s *Store) Lookup(ctx context.Context, idOrName string) (*Dataset, error) {
	ds, err := s.byColumn(ctx, "id", idOrName)
	if errors.Is(err, ErrNotFound) {
		return s.byColumn(ctx, "name", idOrName)
	}
	return ds, err
}

func (s *Store) byColumn(ctx context.Context, column, value string) (*Dataset, error) {
	var row struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	q := s.db.Rebind(fmt.Sprintf(`SELECT id, name FROM datasets WHERE %s = ?`, column))
	if err := s.db.GetContext(ctx, &row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up dataset: %w", err)
	}
	return &Dataset{store: s, id: row.ID, name: row.Name}, nil
}

// List returns all datasets with their item counts, oldest first
func (s *Store) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := s.db.SelectContext(ctx, &infos, `
		SELECT d.id, d.name, d.created_at, COUNT(i.seq) AS item_count
		FROM datasets d
		LEFT JOIN dataset_items i ON i.dataset_id = d.id
		GROUP BY d.id, d.name, d.created_at
		ORDER BY d.created_at, d.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	for i := range infos {
		infos[i].CreatedAt, _ = time.Parse(time.RFC3339Nano, infos[i].CreatedRaw)
	}
	return infos, nil
}
