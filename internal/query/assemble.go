package query

import (
	"github.com/hydroframe/point-obs/internal/domain"
)

// Assemble concatenates per-site loads into the unified observation table and
// (when requested) the matching metadata table. Row order is the insertion
// order of the surviving sites, which is site-index order; callers needing
// chronological output use ObservationTable.SortChronological.
//
// Metadata rows cover exactly the sites that survived the coverage filter.
// Unless allAttributes is set, each row is reduced to the fixed projection
// (domain.MetadataColumns): the extended attributes are stripped. The
// record_count carried is the site's lifetime index total, not the in-window
// count.
func Assemble(loads []SiteLoad, returnMetadata, allAttributes bool) (domain.ObservationTable, *domain.MetadataTable) {
	var obs domain.ObservationTable
	for _, load := range loads {
		if load.Skipped {
			continue
		}
		obs.Rows = append(obs.Rows, load.Records...)
	}

	if !returnMetadata {
		return obs, nil
	}

	md := &domain.MetadataTable{AllAttributes: allAttributes}
	for _, load := range loads {
		if load.Skipped {
			continue
		}
		row := load.Site
		if !allAttributes {
			row.Attributes = nil
		}
		md.Rows = append(md.Rows, row)
	}
	return obs, md
}
