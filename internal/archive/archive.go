// Package archive is the read-only collaborator over the observation corpus:
// a sqlite site index plus per-site CSV record files (and, for discrete
// water-table depth, records held in the index database itself). Nothing in
// this package ever writes to an opened archive; the Builder exists only to
// construct mock archives for tests and local runs.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hydroframe/point-obs/internal/domain"
)

//go:embed sql/list-sites.sql
var listSitesSQL string

//go:embed sql/get-wtd-records.sql
var getWTDRecordsSQL string

//go:embed sql/create-schema.sql
var createSchemaSQL string

// Archive provides read access to a corpus rooted at a directory with its
// site index database alongside.
type Archive struct {
	root   string
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the archive at root with the site index at dbPath. The database
// is opened read-only; a missing index surfaces domain.ErrArchiveUnavailable.
func Open(root, dbPath string, logger *slog.Logger) (*Archive, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArchiveUnavailable, dbPath, err)
	}

	// mode=ro enforces the engine's read-only contract at the driver level;
	// busy_timeout covers concurrent readers sharing the index file.
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrArchiveUnavailable, dbPath, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrArchiveUnavailable, dbPath, err)
	}

	return &Archive{root: root, db: db, logger: logger}, nil
}

// Root returns the archive root directory.
func (a *Archive) Root() string { return a.root }

// Ping verifies the index database is still reachable. Used by readiness
// checks.
func (a *Archive) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArchiveUnavailable, err)
	}
	return nil
}

// Close releases the index database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// resolvePath maps an index file_path onto the filesystem. Relative paths are
// anchored at the archive root.
func (a *Archive) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(a.root, filePath)
}
