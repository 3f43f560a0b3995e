package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
	"github.com/hydroframe/point-obs/internal/observability"
)

// stubReader serves records from a per-site map, failing for sites listed in
// failSites. It counts concurrent readers so pool bounds can be asserted.
type stubReader struct {
	records   map[string][]domain.ObservationRecord
	failSites map[string]error

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (r *stubReader) ReadRecords(ctx context.Context, _ catalog.Entry, site domain.SiteRecord) ([]domain.ObservationRecord, error) {
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		max := r.maxInFlight.Load()
		if cur <= max || r.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := r.failSites[site.SiteID]; ok {
		return nil, err
	}
	return r.records[site.SiteID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func dailyRecords(siteID string, from, n int) []domain.ObservationRecord {
	out := make([]domain.ObservationRecord, 0, n)
	for i := range n {
		out = append(out, domain.ObservationRecord{SiteID: siteID, Timestamp: day(from + i), Value: float64(i)})
	}
	return out
}

func newTestLoader(reader RecordReader, workers int) *Loader {
	return NewLoader(reader, testLogger(), observability.NewMetricsForTesting(), workers)
}

func TestLoadAllWindowing(t *testing.T) {
	entry := catalog.Entry{VarID: 2, TemporalResolution: domain.Daily}
	site := domain.SiteRecord{SiteID: "s1"}

	t.Run("both bounds are inclusive days", func(t *testing.T) {
		reader := &stubReader{records: map[string][]domain.ObservationRecord{
			"s1": dailyRecords("s1", 1, 10), // March 1..10
		}}
		start, end := day(3), day(7)
		spec := domain.QuerySpec{DateStart: &start, DateEnd: &end, MinNumObs: 1}

		loads, err := newTestLoader(reader, 2).LoadAll(context.Background(), entry, []domain.SiteRecord{site}, spec)

		require.NoError(t, err)
		require.Len(t, loads, 1)
		require.Len(t, loads[0].Records, 5)
		assert.Equal(t, day(3), loads[0].Records[0].Timestamp)
		assert.Equal(t, day(7), loads[0].Records[4].Timestamp)
	})

	t.Run("end bound covers the entire end day for hourly records", func(t *testing.T) {
		hourly := catalog.Entry{VarID: 1, TemporalResolution: domain.Hourly}
		reader := &stubReader{records: map[string][]domain.ObservationRecord{
			"s1": {
				{SiteID: "s1", Timestamp: day(7).Add(23 * time.Hour), Value: 1},
				{SiteID: "s1", Timestamp: day(8), Value: 2},
			},
		}}
		start, end := day(1), day(7)
		spec := domain.QuerySpec{DateStart: &start, DateEnd: &end, MinNumObs: 1}

		loads, err := newTestLoader(reader, 1).LoadAll(context.Background(), hourly, []domain.SiteRecord{site}, spec)

		require.NoError(t, err)
		require.Len(t, loads[0].Records, 1)
		assert.Equal(t, day(7).Add(23*time.Hour), loads[0].Records[0].Timestamp)
	})

	t.Run("open-ended window keeps everything", func(t *testing.T) {
		reader := &stubReader{records: map[string][]domain.ObservationRecord{
			"s1": dailyRecords("s1", 1, 10),
		}}
		spec := domain.QuerySpec{MinNumObs: 1}

		loads, err := newTestLoader(reader, 2).LoadAll(context.Background(), entry, []domain.SiteRecord{site}, spec)

		require.NoError(t, err)
		assert.Len(t, loads[0].Records, 10)
	})
}

func TestLoadAllCoverage(t *testing.T) {
	entry := catalog.Entry{VarID: 2, TemporalResolution: domain.Daily}
	sites := []domain.SiteRecord{{SiteID: "rich"}, {SiteID: "sparse"}}
	reader := &stubReader{records: map[string][]domain.ObservationRecord{
		"rich":   dailyRecords("rich", 1, 20),
		"sparse": dailyRecords("sparse", 1, 3),
	}}

	t.Run("sites below min_num_obs are skipped not failed", func(t *testing.T) {
		spec := domain.QuerySpec{MinNumObs: 5}

		loads, err := newTestLoader(reader, 2).LoadAll(context.Background(), entry, sites, spec)

		require.NoError(t, err)
		require.Len(t, loads, 2)
		assert.False(t, loads[0].Skipped)
		assert.Len(t, loads[0].Records, 20)
		assert.True(t, loads[1].Skipped)
		assert.Empty(t, loads[1].Records)
	})

	t.Run("raising the threshold only shrinks the survivor set", func(t *testing.T) {
		surviving := func(min int) int {
			spec := domain.QuerySpec{MinNumObs: min}
			loads, err := newTestLoader(reader, 2).LoadAll(context.Background(), entry, sites, spec)
			require.NoError(t, err)
			n := 0
			for _, l := range loads {
				if !l.Skipped {
					n++
				}
			}
			return n
		}

		prev := surviving(1)
		for _, min := range []int{2, 3, 4, 10, 21} {
			cur := surviving(min)
			assert.LessOrEqual(t, cur, prev, "min_num_obs=%d", min)
			prev = cur
		}
		assert.Zero(t, surviving(21), "threshold above every site's count excludes all")
	})
}

func TestLoadAllConcurrency(t *testing.T) {
	entry := catalog.Entry{VarID: 2, TemporalResolution: domain.Daily}

	t.Run("results stay in site order regardless of completion order", func(t *testing.T) {
		var sites []domain.SiteRecord
		records := map[string][]domain.ObservationRecord{}
		for i := range 50 {
			id := fmt.Sprintf("site-%03d", i)
			sites = append(sites, domain.SiteRecord{SiteID: id})
			records[id] = dailyRecords(id, 1, 1+i%5)
		}
		reader := &stubReader{records: records}

		loads, err := newTestLoader(reader, 8).LoadAll(context.Background(), entry, sites, domain.QuerySpec{MinNumObs: 1})

		require.NoError(t, err)
		require.Len(t, loads, 50)
		for i, load := range loads {
			assert.Equal(t, sites[i].SiteID, load.Site.SiteID)
			require.NotEmpty(t, load.Records)
			assert.Equal(t, sites[i].SiteID, load.Records[0].SiteID)
		}
		assert.LessOrEqual(t, reader.maxInFlight.Load(), int64(8))
	})

	t.Run("first hard error aborts the load", func(t *testing.T) {
		sites := []domain.SiteRecord{{SiteID: "ok"}, {SiteID: "broken"}, {SiteID: "also-ok"}}
		reader := &stubReader{
			records: map[string][]domain.ObservationRecord{
				"ok":      dailyRecords("ok", 1, 5),
				"also-ok": dailyRecords("also-ok", 1, 5),
			},
			failSites: map[string]error{
				"broken": fmt.Errorf("%w: site broken", domain.ErrRecordFileMissing),
			},
		}

		loads, err := newTestLoader(reader, 2).LoadAll(context.Background(), entry, sites, domain.QuerySpec{MinNumObs: 1})

		assert.Nil(t, loads)
		assert.ErrorIs(t, err, domain.ErrRecordFileMissing)
	})

	t.Run("canceled context surfaces", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sites := []domain.SiteRecord{{SiteID: "s1"}}
		reader := &stubReader{records: map[string][]domain.ObservationRecord{"s1": dailyRecords("s1", 1, 5)}}

		_, err := newTestLoader(reader, 2).LoadAll(ctx, entry, sites, domain.QuerySpec{MinNumObs: 1})

		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("empty site set loads nothing", func(t *testing.T) {
		loads, err := newTestLoader(&stubReader{}, 4).LoadAll(context.Background(), entry, nil, domain.QuerySpec{MinNumObs: 1})

		require.NoError(t, err)
		assert.Empty(t, loads)
	})
}
