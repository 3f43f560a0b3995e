package archive

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
)

// DefaultDBName is the site index filename at the archive root.
const DefaultDBName = "point_obs.sqlite"

// Builder constructs a mock archive: the site index database plus per-site
// record files laid out exactly as the query engine expects to read them.
// It exists for cmd/genarchive and test fixtures; the engine itself never
// writes.
type Builder struct {
	root string
	db   *sql.DB
}

// NewBuilder creates (or reuses) the archive directory at root and
// initializes the index schema.
func NewBuilder(root string) (*Builder, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}

	dbPath := filepath.Join(root, DefaultDBName)
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec(createSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}

	return &Builder{root: root, db: db}, nil
}

// Root returns the archive root directory.
func (b *Builder) Root() string { return b.root }

// DBPath returns the site index database path.
func (b *Builder) DBPath() string { return filepath.Join(b.root, DefaultDBName) }

// Close releases the index database handle.
func (b *Builder) Close() error { return b.db.Close() }

// AddSite inserts one site attribute row. Attributes may be nil.
func (b *Builder) AddSite(site domain.SiteRecord) error {
	attrs := site.Attributes
	if attrs == nil {
		attrs = &domain.SiteAttributes{}
	}
	_, err := b.db.Exec(
		`INSERT OR REPLACE INTO sites
		 (site_id, site_name, site_type, agency, state, latitude, longitude,
		  huc, site_query_url, date_metadata_last_updated, tz_cd, doi)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.SiteID, site.SiteName, site.SiteType, site.Agency, site.State,
		site.Latitude, site.Longitude,
		attrs.HUC, attrs.SiteQueryURL, attrs.DateMetadataLastUpdated, attrs.TZ, attrs.DOI,
	)
	if err != nil {
		return fmt.Errorf("insert site %s: %w", site.SiteID, err)
	}
	return nil
}

// AddObservations stores a site's records for one product: CSV products get
// a record file under the product's record directory plus an index row
// pointing at it; SQL products get rows in the discrete-record table. The
// index row's availability dates and record count are derived from the
// records given.
func (b *Builder) AddObservations(entry catalog.Entry, siteID string, recs []domain.ObservationRecord) error {
	var filePath string
	switch entry.Storage {
	case catalog.StorageSQL:
		if err := b.insertDiscrete(recs); err != nil {
			return err
		}
	default:
		var err error
		filePath, err = b.writeRecordFile(entry, siteID, recs)
		if err != nil {
			return err
		}
	}

	first, last := "None", "None"
	if len(recs) > 0 {
		first = recs[0].Timestamp.Format(indexDateLayout)
		last = recs[len(recs)-1].Timestamp.Format(indexDateLayout)
	}

	_, err := b.db.Exec(
		`INSERT OR REPLACE INTO observations
		 (site_id, var_id, first_date_data_available, last_date_data_available, record_count, file_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		siteID, entry.VarID, first, last, len(recs), filePath,
	)
	if err != nil {
		return fmt.Errorf("insert observations row for site %s: %w", siteID, err)
	}
	return nil
}

// AddNetworkList writes the membership list for a named site network: one
// site id per line, no header.
func (b *Builder) AddNetworkList(source domain.DataSource, variable domain.Variable, network string, siteIDs []string) error {
	path := networkListPath(b.root, source, variable, network)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create network list dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create network list %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, id := range siteIDs {
		if err := w.Write([]string{id}); err != nil {
			return fmt.Errorf("write network list %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush network list %s: %w", path, err)
	}
	return nil
}

func (b *Builder) writeRecordFile(entry catalog.Entry, siteID string, recs []domain.ObservationRecord) (string, error) {
	rel := filepath.Join(entry.RecordDir, siteID+".csv")
	path := filepath.Join(b.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create record file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"datetime", entry.Column}); err != nil {
		return "", fmt.Errorf("write record header: %w", err)
	}
	for _, rec := range recs {
		row := []string{formatTimestamp(entry, rec.Timestamp), strconv.FormatFloat(rec.Value, 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write record row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush record file %s: %w", path, err)
	}
	return rel, nil
}

func (b *Builder) insertDiscrete(recs []domain.ObservationRecord) error {
	for _, rec := range recs {
		_, err := b.db.Exec(
			`INSERT INTO wtd_discrete_data (site_id, date, wtd, pumping_status) VALUES (?, ?, ?, '1')`,
			rec.SiteID, rec.Timestamp.Format(indexDateLayout), rec.Value,
		)
		if err != nil {
			return fmt.Errorf("insert discrete record for site %s: %w", rec.SiteID, err)
		}
	}
	return nil
}

// formatTimestamp writes the source's native convention: RFC 3339 UTC for
// hourly products, bare local dates otherwise.
func formatTimestamp(entry catalog.Entry, t time.Time) string {
	if entry.TemporalResolution == domain.Hourly {
		return t.UTC().Format(time.RFC3339)
	}
	return t.Format(indexDateLayout)
}
