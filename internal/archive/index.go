package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/hydroframe/point-obs/internal/domain"
)

// indexDateLayout is how the site index stores availability dates. The
// literal "None" (inherited from the upstream ingest tooling) and the empty
// string both mean no data on record.
const indexDateLayout = "2006-01-02"

// SiteLister resolves a product's var_id to its site index rows.
type SiteLister interface {
	ListSites(ctx context.Context, varID int) ([]domain.SiteRecord, error)
}

// ListSites reads the site index for one var_id and returns it verbatim: one
// SiteRecord per site, no filtering. A registered product with zero sites is
// an empty slice, not an error. Read failures surface
// domain.ErrArchiveUnavailable.
func (a *Archive) ListSites(ctx context.Context, varID int) ([]domain.SiteRecord, error) {
	rows, err := a.db.QueryContext(ctx, listSitesSQL, varID)
	if err != nil {
		return nil, fmt.Errorf("%w: site index for var_id %d: %v", domain.ErrArchiveUnavailable, varID, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			a.logger.Error("close site index rows", "error", cerr)
		}
	}()

	var out []domain.SiteRecord
	for rows.Next() {
		var (
			s           domain.SiteRecord
			attrs       domain.SiteAttributes
			first, last string
		)
		if err := rows.Scan(
			&s.SiteID, &s.SiteName, &s.SiteType, &s.Agency, &s.State,
			&s.Latitude, &s.Longitude, &s.VarID,
			&first, &last, &s.RecordCount, &s.FilePath,
			&attrs.HUC, &attrs.SiteQueryURL, &attrs.DateMetadataLastUpdated,
			&attrs.TZ, &attrs.DOI,
		); err != nil {
			return nil, fmt.Errorf("%w: scan site index row: %v", domain.ErrArchiveUnavailable, err)
		}
		s.FirstDateDataAvailable = parseIndexDate(first)
		s.LastDateDataAvailable = parseIndexDate(last)
		s.Attributes = &attrs
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate site index: %v", domain.ErrArchiveUnavailable, err)
	}
	return out, nil
}

func parseIndexDate(s string) time.Time {
	if s == "" || s == "None" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(indexDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
