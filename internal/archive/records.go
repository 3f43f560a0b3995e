package archive

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
)

// ReadRecords returns every observation record for one site, in file order,
// timestamps in the source's native convention. Windowing and coverage
// counting happen in the loader, not here.
//
// A file_path that does not resolve to a readable file surfaces
// domain.ErrRecordFileMissing: the index claims data that is not there, which
// is archive corruption rather than a legitimate empty site.
func (a *Archive) ReadRecords(ctx context.Context, entry catalog.Entry, site domain.SiteRecord) ([]domain.ObservationRecord, error) {
	switch entry.Storage {
	case catalog.StorageSQL:
		return a.readSQLRecords(ctx, site.SiteID)
	default:
		return a.readCSVRecords(ctx, entry, site)
	}
}

func (a *Archive) readCSVRecords(ctx context.Context, entry catalog.Entry, site domain.SiteRecord) ([]domain.ObservationRecord, error) {
	path := a.resolvePath(site.FilePath)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: site %s: %s", domain.ErrRecordFileMissing, site.SiteID, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("record file %s: read header: %w", path, err)
	}

	valueCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), entry.Column) {
			valueCol = i
			break
		}
	}
	if valueCol < 1 {
		return nil, fmt.Errorf("record file %s: no %q column", path, entry.Column)
	}

	var out []domain.ObservationRecord
	for i := 0; ; i++ {
		// Record files can be large; keep cancellation responsive without
		// paying for a context check on every row.
		if i%512 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record file %s: row %d: %w", path, i+2, err)
		}
		if valueCol >= len(row) {
			continue
		}

		raw := strings.TrimSpace(row[valueCol])
		if raw == "" || strings.EqualFold(raw, "nan") {
			// Missing observation: present in the file's date spine but
			// unmeasured. Not a record for coverage purposes.
			continue
		}

		ts, err := parseRecordTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("record file %s: row %d: %w", path, i+2, err)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("record file %s: row %d: parse value %q: %w", path, i+2, raw, err)
		}

		out = append(out, domain.ObservationRecord{SiteID: site.SiteID, Timestamp: ts, Value: value})
	}
	return out, nil
}

func (a *Archive) readSQLRecords(ctx context.Context, siteID string) ([]domain.ObservationRecord, error) {
	rows, err := a.db.QueryContext(ctx, getWTDRecordsSQL, siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: discrete records for site %s: %v", domain.ErrArchiveUnavailable, siteID, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			a.logger.Error("close discrete record rows", "error", cerr)
		}
	}()

	var out []domain.ObservationRecord
	for rows.Next() {
		var (
			rec   domain.ObservationRecord
			date  string
			value *float64
		)
		if err := rows.Scan(&rec.SiteID, &date, &value); err != nil {
			return nil, fmt.Errorf("%w: scan discrete record for site %s: %v", domain.ErrArchiveUnavailable, siteID, err)
		}
		if value == nil {
			continue
		}
		ts, err := parseRecordTimestamp(date)
		if err != nil {
			return nil, fmt.Errorf("discrete record for site %s: %w", siteID, err)
		}
		rec.Timestamp = ts
		rec.Value = *value
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate discrete records for site %s: %v", domain.ErrArchiveUnavailable, siteID, err)
	}
	return out, nil
}

// parseRecordTimestamp accepts both source conventions: RFC 3339 for hourly
// UTC records and bare dates for locally-timed daily records. The parsed
// value is passed through untouched either way.
func parseRecordTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(indexDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
