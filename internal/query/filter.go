package query

import (
	"strings"
	"time"

	"github.com/hydroframe/point-obs/internal/domain"
)

// FilterSites narrows the candidate site set by the query's geographic,
// identity, and state criteria. Criteria compose conjunctively and
// independently, so application order never changes the result. Unknown site
// ids silently match nothing; an empty survivor set is a valid result.
//
// Range validity is checked by the engine before any I/O; this function
// assumes well-formed input.
func FilterSites(sites []domain.SiteRecord, spec domain.QuerySpec) []domain.SiteRecord {
	siteIDs := toSet(spec.SiteIDs, func(s string) string { return s })
	states := toSet(spec.States, strings.ToUpper)

	var out []domain.SiteRecord
	for _, s := range sites {
		if spec.LatitudeRange != nil && !spec.LatitudeRange.Contains(s.Latitude) {
			continue
		}
		if spec.LongitudeRange != nil && !spec.LongitudeRange.Contains(s.Longitude) {
			continue
		}
		if siteIDs != nil {
			if _, ok := siteIDs[s.SiteID]; !ok {
				continue
			}
		}
		if states != nil {
			if _, ok := states[strings.ToUpper(s.State)]; !ok {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// FilterByNetwork keeps only sites belonging to the resolved network
// membership set. A nil set means the query named no networks; an empty
// non-nil set (networks whose lists held no ids) drops every site.
// Composes conjunctively with FilterSites, site-id criterion included.
func FilterByNetwork(sites []domain.SiteRecord, ids map[string]struct{}) []domain.SiteRecord {
	if ids == nil {
		return sites
	}
	var out []domain.SiteRecord
	for _, s := range sites {
		if _, ok := ids[s.SiteID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// PruneByAvailability drops sites whose indexed availability span cannot
// intersect the query window: last date with data before the window opens, or
// first date with data after it closes. A pure optimization ahead of the
// loader's authoritative in-window count; sites with unknown availability are
// kept.
func PruneByAvailability(sites []domain.SiteRecord, dateStart, dateEnd *time.Time) []domain.SiteRecord {
	if dateStart == nil && dateEnd == nil {
		return sites
	}

	var out []domain.SiteRecord
	for _, s := range sites {
		if dateStart != nil && !s.LastDateDataAvailable.IsZero() && s.LastDateDataAvailable.Before(*dateStart) {
			continue
		}
		if dateEnd != nil && !s.FirstDateDataAvailable.IsZero() && s.FirstDateDataAvailable.After(*dateEnd) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// toSet builds a membership set with a key normalizer, or nil when the filter
// is absent.
func toSet(values []string, norm func(string) string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[norm(v)] = struct{}{}
	}
	return set
}
