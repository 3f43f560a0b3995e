package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func dailyRecords(siteID string, from, n int) []domain.ObservationRecord {
	out := make([]domain.ObservationRecord, 0, n)
	for i := range n {
		out = append(out, domain.ObservationRecord{SiteID: siteID, Timestamp: day(from + i), Value: float64(10 + i)})
	}
	return out
}

func mustEntry(t *testing.T, source domain.DataSource, variable domain.Variable, resolution domain.Resolution, agg domain.Aggregation) catalog.Entry {
	t.Helper()
	e, err := catalog.Resolve(source, variable, resolution, agg, nil)
	require.NoError(t, err)
	return e
}

// buildTestArchive writes a small two-product archive and reopens it
// read-only.
func buildTestArchive(t *testing.T) *Archive {
	t.Helper()
	root := t.TempDir()

	b, err := NewBuilder(root)
	require.NoError(t, err)

	daily := mustEntry(t, domain.SourceUSGSNWIS, domain.VarStreamflow, domain.Daily, domain.AggAverage)
	wtd := mustEntry(t, domain.SourceUSGSNWIS, domain.VarWTD, domain.Instantaneous, domain.AggInstantaneous)

	require.NoError(t, b.AddSite(domain.SiteRecord{
		SiteID: "01019000", SiteName: "Grand Lake Stream", SiteType: "stream gauge",
		Agency: "USGS", State: "ME", Latitude: 45.1726, Longitude: -67.7911,
		Attributes: &domain.SiteAttributes{HUC: "01050002", TZ: "EST", DOI: "10.17190/X"},
	}))
	require.NoError(t, b.AddObservations(daily, "01019000", dailyRecords("01019000", 1, 10)))

	require.NoError(t, b.AddSite(domain.SiteRecord{
		SiteID: "00990000", SiteName: "Empty Gauge", SiteType: "stream gauge",
		Agency: "USGS", State: "ME", Latitude: 44.0, Longitude: -68.0,
	}))
	require.NoError(t, b.AddObservations(daily, "00990000", nil))

	require.NoError(t, b.AddSite(domain.SiteRecord{
		SiteID: "396733085524601", SiteName: "Flatrock Well", SiteType: "well",
		Agency: "USGS", State: "IN", Latitude: 39.67, Longitude: -85.52,
	}))
	require.NoError(t, b.AddObservations(wtd, "396733085524601", dailyRecords("396733085524601", 3, 4)))

	require.NoError(t, b.Close())

	arc, err := Open(root, filepath.Join(root, DefaultDBName), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Close() })
	return arc
}

func TestOpen(t *testing.T) {
	t.Run("missing index database", func(t *testing.T) {
		root := t.TempDir()
		_, err := Open(root, filepath.Join(root, DefaultDBName), testLogger())

		assert.ErrorIs(t, err, domain.ErrArchiveUnavailable)
	})

	t.Run("opened archive answers ping", func(t *testing.T) {
		arc := buildTestArchive(t)
		assert.NoError(t, arc.Ping(context.Background()))
	})
}

func TestListSites(t *testing.T) {
	arc := buildTestArchive(t)

	t.Run("rows come back ordered by site_id with attributes", func(t *testing.T) {
		sites, err := arc.ListSites(context.Background(), 2)

		require.NoError(t, err)
		require.Len(t, sites, 1, "sites with no data on record stay out of the index listing")

		s := sites[0]
		assert.Equal(t, "01019000", s.SiteID)
		assert.Equal(t, "Grand Lake Stream", s.SiteName)
		assert.Equal(t, "ME", s.State)
		assert.Equal(t, 2, s.VarID)
		assert.Equal(t, day(1), s.FirstDateDataAvailable)
		assert.Equal(t, day(10), s.LastDateDataAvailable)
		assert.Equal(t, int64(10), s.RecordCount)
		assert.NotEmpty(t, s.FilePath)
		require.NotNil(t, s.Attributes)
		assert.Equal(t, "01050002", s.Attributes.HUC)
		assert.Equal(t, "EST", s.Attributes.TZ)
	})

	t.Run("registered product with zero sites", func(t *testing.T) {
		sites, err := arc.ListSites(context.Background(), 6)

		require.NoError(t, err)
		assert.Empty(t, sites)
	})
}

func TestParseIndexDate(t *testing.T) {
	assert.Equal(t, day(1), parseIndexDate("2020-03-01"))
	assert.True(t, parseIndexDate("None").IsZero())
	assert.True(t, parseIndexDate("").IsZero())
	assert.True(t, parseIndexDate("garbage").IsZero())
}

func TestReadRecords(t *testing.T) {
	arc := buildTestArchive(t)
	daily := mustEntry(t, domain.SourceUSGSNWIS, domain.VarStreamflow, domain.Daily, domain.AggAverage)
	wtd := mustEntry(t, domain.SourceUSGSNWIS, domain.VarWTD, domain.Instantaneous, domain.AggInstantaneous)

	t.Run("csv records round-trip in file order", func(t *testing.T) {
		sites, err := arc.ListSites(context.Background(), 2)
		require.NoError(t, err)

		recs, err := arc.ReadRecords(context.Background(), daily, sites[0])

		require.NoError(t, err)
		require.Len(t, recs, 10)
		assert.Equal(t, "01019000", recs[0].SiteID)
		assert.Equal(t, day(1), recs[0].Timestamp)
		assert.Equal(t, 10.0, recs[0].Value)
		assert.Equal(t, day(10), recs[9].Timestamp)
	})

	t.Run("discrete wtd records come from the index database", func(t *testing.T) {
		site := domain.SiteRecord{SiteID: "396733085524601"}
		recs, err := arc.ReadRecords(context.Background(), wtd, site)

		require.NoError(t, err)
		require.Len(t, recs, 4)
		assert.Equal(t, day(3), recs[0].Timestamp)
		assert.Equal(t, day(6), recs[3].Timestamp)
	})

	t.Run("file_path pointing nowhere is archive corruption", func(t *testing.T) {
		site := domain.SiteRecord{SiteID: "ghost", FilePath: "streamflow/data/daily/ghost.csv"}
		_, err := arc.ReadRecords(context.Background(), daily, site)

		assert.ErrorIs(t, err, domain.ErrRecordFileMissing)
	})

	t.Run("missing values are skipped not zeroed", func(t *testing.T) {
		rel := "streamflow/data/daily/gappy.csv"
		path := filepath.Join(arc.Root(), rel)
		content := "datetime,streamflow\n" +
			"2020-03-01,12.5\n" +
			"2020-03-02,\n" +
			"2020-03-03,NaN\n" +
			"2020-03-04,13.75\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		recs, err := arc.ReadRecords(context.Background(), daily, domain.SiteRecord{SiteID: "gappy", FilePath: rel})

		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, 12.5, recs[0].Value)
		assert.Equal(t, 13.75, recs[1].Value)
	})

	t.Run("value column is found by header name", func(t *testing.T) {
		rel := "streamflow/data/daily/extra-cols.csv"
		path := filepath.Join(arc.Root(), rel)
		content := "datetime,quality,streamflow\n" +
			"2020-03-01,A,7.25\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		recs, err := arc.ReadRecords(context.Background(), daily, domain.SiteRecord{SiteID: "extra", FilePath: rel})

		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 7.25, recs[0].Value)
	})

	t.Run("file without the expected column", func(t *testing.T) {
		rel := "streamflow/data/daily/wrong-cols.csv"
		path := filepath.Join(arc.Root(), rel)
		require.NoError(t, os.WriteFile(path, []byte("datetime,swe\n2020-03-01,1\n"), 0o644))

		_, err := arc.ReadRecords(context.Background(), daily, domain.SiteRecord{SiteID: "wrong", FilePath: rel})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `no "streamflow" column`)
	})
}

func TestNetworkSiteIDs(t *testing.T) {
	root := t.TempDir()
	b, err := NewBuilder(root)
	require.NoError(t, err)
	require.NoError(t, b.AddNetworkList(domain.SourceUSGSNWIS, domain.VarStreamflow, "camels",
		[]string{"01019000", "06719505"}))
	require.NoError(t, b.Close())

	arc, err := Open(root, filepath.Join(root, DefaultDBName), testLogger())
	require.NoError(t, err)
	defer arc.Close()

	t.Run("round-trips the membership in file order", func(t *testing.T) {
		ids, err := arc.NetworkSiteIDs(context.Background(), domain.SourceUSGSNWIS, domain.VarStreamflow, "camels")

		require.NoError(t, err)
		assert.Equal(t, []string{"01019000", "06719505"}, ids)
	})

	t.Run("missing list file is archive corruption", func(t *testing.T) {
		_, err := arc.NetworkSiteIDs(context.Background(), domain.SourceUSGSNWIS, domain.VarStreamflow, "hcdn2009")

		assert.ErrorIs(t, err, domain.ErrArchiveUnavailable)
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		path := networkListPath(root, domain.SourceUSGSNWIS, domain.VarStreamflow, "gagesii")
		require.NoError(t, os.WriteFile(path, []byte("01019000\n\n  \n09380000\n"), 0o644))

		ids, err := arc.NetworkSiteIDs(context.Background(), domain.SourceUSGSNWIS, domain.VarStreamflow, "gagesii")

		require.NoError(t, err)
		assert.Equal(t, []string{"01019000", "09380000"}, ids)
	})
}

func TestParseRecordTimestamp(t *testing.T) {
	t.Run("hourly records carry RFC 3339 UTC", func(t *testing.T) {
		got, err := parseRecordTimestamp("2020-03-01T14:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, day(1).Add(14*time.Hour), got)
	})

	t.Run("daily records carry a bare date", func(t *testing.T) {
		got, err := parseRecordTimestamp("2020-03-01")
		require.NoError(t, err)
		assert.Equal(t, day(1), got)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseRecordTimestamp("yesterday")
		assert.Error(t, err)
	})
}

func TestBuilderHourlyFormat(t *testing.T) {
	root := t.TempDir()
	b, err := NewBuilder(root)
	require.NoError(t, err)

	hourly := mustEntry(t, domain.SourceUSGSNWIS, domain.VarStreamflow, domain.Hourly, domain.AggAverage)
	recs := []domain.ObservationRecord{
		{SiteID: "h1", Timestamp: day(1).Add(5 * time.Hour), Value: 1.5},
		{SiteID: "h1", Timestamp: day(1).Add(6 * time.Hour), Value: 2.5},
	}
	require.NoError(t, b.AddSite(domain.SiteRecord{SiteID: "h1", State: "ME"}))
	require.NoError(t, b.AddObservations(hourly, "h1", recs))
	require.NoError(t, b.Close())

	arc, err := Open(root, filepath.Join(root, DefaultDBName), testLogger())
	require.NoError(t, err)
	defer arc.Close()

	sites, err := arc.ListSites(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, sites, 1)

	got, err := arc.ReadRecords(context.Background(), hourly, sites[0])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(1).Add(5*time.Hour), got[0].Timestamp)
	assert.Equal(t, time.UTC, got[0].Timestamp.Location())
}
