package query

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/hydroframe/point-obs/internal/domain"
)

func testSites() []domain.SiteRecord {
	return []domain.SiteRecord{
		{SiteID: "01019000", State: "ME", Latitude: 45.17, Longitude: -67.79},
		{SiteID: "01027200", State: "ME", Latitude: 44.91, Longitude: -68.27},
		{SiteID: "06719505", State: "CO", Latitude: 39.75, Longitude: -105.22},
		{SiteID: "09380000", State: "az", Latitude: 36.86, Longitude: -111.59},
	}
}

func siteIDsOf(sites []domain.SiteRecord) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		out = append(out, s.SiteID)
	}
	return out
}

func TestFilterSites(t *testing.T) {
	t.Run("no criteria keeps everything", func(t *testing.T) {
		got := FilterSites(testSites(), domain.QuerySpec{})
		assert.Len(t, got, 4)
	})

	t.Run("latitude range with inclusive bounds", func(t *testing.T) {
		spec := domain.QuerySpec{LatitudeRange: &domain.Range{39.75, 45.17}}
		got := FilterSites(testSites(), spec)
		assert.Equal(t, []string{"01019000", "01027200", "06719505"}, siteIDsOf(got))
	})

	t.Run("latitude and longitude compose conjunctively", func(t *testing.T) {
		spec := domain.QuerySpec{
			LatitudeRange:  &domain.Range{39, 46},
			LongitudeRange: &domain.Range{-70, -60},
		}
		got := FilterSites(testSites(), spec)
		assert.Equal(t, []string{"01019000", "01027200"}, siteIDsOf(got))
	})

	t.Run("state codes match case-insensitively", func(t *testing.T) {
		spec := domain.QuerySpec{States: []string{"Az", "CO"}}
		got := FilterSites(testSites(), spec)
		assert.Equal(t, []string{"06719505", "09380000"}, siteIDsOf(got))
	})

	t.Run("unknown site ids silently match nothing", func(t *testing.T) {
		spec := domain.QuerySpec{SiteIDs: []string{"01019000", "no-such-site"}}
		got := FilterSites(testSites(), spec)
		assert.Equal(t, []string{"01019000"}, siteIDsOf(got))
	})

	t.Run("disjoint criteria yield an empty survivor set", func(t *testing.T) {
		spec := domain.QuerySpec{
			States:  []string{"ME"},
			SiteIDs: []string{"09380000"},
		}
		got := FilterSites(testSites(), spec)
		assert.Empty(t, got)
	})

	t.Run("criteria order never changes the result", func(t *testing.T) {
		spec := domain.QuerySpec{
			LatitudeRange:  &domain.Range{36, 46},
			LongitudeRange: &domain.Range{-112, -67},
			States:         []string{"ME", "AZ"},
			SiteIDs:        []string{"01019000", "09380000", "06719505"},
		}
		// Applying the same conjunction through any single pass must match
		// intersecting the per-criterion survivor sets.
		full := FilterSites(testSites(), spec)

		byState := FilterSites(testSites(), domain.QuerySpec{States: spec.States})
		byStateThenIDs := FilterSites(byState, domain.QuerySpec{SiteIDs: spec.SiteIDs})
		byStateThenIDsThenGeo := FilterSites(byStateThenIDs, domain.QuerySpec{
			LatitudeRange:  spec.LatitudeRange,
			LongitudeRange: spec.LongitudeRange,
		})

		if diff := cmp.Diff(full, byStateThenIDsThenGeo); diff != "" {
			t.Errorf("staged filtering diverged (-full +staged):\n%s", diff)
		}
	})
}

func TestFilterByNetwork(t *testing.T) {
	t.Run("nil set means no criterion", func(t *testing.T) {
		got := FilterByNetwork(testSites(), nil)
		assert.Len(t, got, 4)
	})

	t.Run("empty set drops every site", func(t *testing.T) {
		got := FilterByNetwork(testSites(), map[string]struct{}{})
		assert.Empty(t, got)
	})

	t.Run("keeps only members", func(t *testing.T) {
		ids := map[string]struct{}{"01019000": {}, "09380000": {}, "not-indexed": {}}
		got := FilterByNetwork(testSites(), ids)
		assert.Equal(t, []string{"01019000", "09380000"}, siteIDsOf(got))
	})

	t.Run("composes conjunctively with the site filter", func(t *testing.T) {
		ids := map[string]struct{}{"01019000": {}, "06719505": {}}
		spec := domain.QuerySpec{States: []string{"CO"}}
		got := FilterByNetwork(FilterSites(testSites(), spec), ids)
		assert.Equal(t, []string{"06719505"}, siteIDsOf(got))
	})
}

func TestPruneByAvailability(t *testing.T) {
	day := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	sites := []domain.SiteRecord{
		{SiteID: "ends-before", FirstDateDataAvailable: day(2010, 1, 1), LastDateDataAvailable: day(2015, 12, 31)},
		{SiteID: "overlaps", FirstDateDataAvailable: day(2015, 1, 1), LastDateDataAvailable: day(2021, 6, 1)},
		{SiteID: "starts-after", FirstDateDataAvailable: day(2022, 1, 1), LastDateDataAvailable: day(2023, 1, 1)},
		{SiteID: "unknown-span"},
	}
	start, end := day(2020, 1, 1), day(2020, 12, 31)

	t.Run("open window keeps everything", func(t *testing.T) {
		got := PruneByAvailability(sites, nil, nil)
		assert.Len(t, got, 4)
	})

	t.Run("non-intersecting spans are dropped", func(t *testing.T) {
		got := PruneByAvailability(sites, &start, &end)
		assert.Equal(t, []string{"overlaps", "unknown-span"}, siteIDsOf(got))
	})

	t.Run("span touching the window edge survives", func(t *testing.T) {
		edge := []domain.SiteRecord{
			{SiteID: "last-on-start", LastDateDataAvailable: start},
			{SiteID: "first-on-end", FirstDateDataAvailable: end},
		}
		got := PruneByAvailability(edge, &start, &end)
		assert.Len(t, got, 2)
	})

	t.Run("start-only window", func(t *testing.T) {
		got := PruneByAvailability(sites, &start, nil)
		assert.Equal(t, []string{"overlaps", "starts-after", "unknown-span"}, siteIDsOf(got))
	})
}
