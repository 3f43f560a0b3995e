package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
	"github.com/hydroframe/point-obs/internal/observability"
)

// RecordReader reads one site's full record sequence from the archive.
type RecordReader interface {
	ReadRecords(ctx context.Context, entry catalog.Entry, site domain.SiteRecord) ([]domain.ObservationRecord, error)
}

// SiteLoad is the outcome of loading one site: its in-window records, or a
// coverage skip.
type SiteLoad struct {
	Site    domain.SiteRecord
	Records []domain.ObservationRecord

	// Skipped marks sites whose in-window record count fell below the
	// query's min_num_obs. A skip is a documented non-error exclusion, not a
	// failure.
	Skipped bool
}

// window is the query's effective record window. Bounds are day-precision;
// the inclusive end date covers the entire end day, so endExclusive is the
// midnight after it.
type window struct {
	start        *time.Time
	endExclusive *time.Time
}

func newWindow(dateStart, dateEnd *time.Time) window {
	w := window{start: dateStart}
	if dateEnd != nil {
		e := dateEnd.Add(24 * time.Hour)
		w.endExclusive = &e
	}
	return w
}

func (w window) contains(t time.Time) bool {
	if w.start != nil && t.Before(*w.start) {
		return false
	}
	if w.endExclusive != nil && !t.Before(*w.endExclusive) {
		return false
	}
	return true
}

// Loader reads record files for the filtered site set on a bounded worker
// pool. Per-site loads are independent and share no mutable state; results
// land in a buffer indexed by site position so output order never depends on
// completion order.
type Loader struct {
	reader  RecordReader
	logger  *slog.Logger
	metrics *observability.Metrics
	workers int
}

// NewLoader creates a Loader running at most workers concurrent site loads.
func NewLoader(reader RecordReader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{reader: reader, logger: logger, metrics: metrics, workers: workers}
}

// LoadAll loads every site's in-window records, applying the coverage filter.
// The returned slice is parallel to sites. The first hard error (missing
// record file, unreadable archive, cancellation) aborts the whole query.
func (l *Loader) LoadAll(ctx context.Context, entry catalog.Entry, sites []domain.SiteRecord, spec domain.QuerySpec) ([]SiteLoad, error) {
	if len(sites) == 0 {
		return nil, nil
	}

	w := newWindow(spec.DateStart, spec.DateEnd)
	results := make([]SiteLoad, len(sites))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := l.workers
	if workers > len(sites) {
		workers = len(sites)
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				load, err := l.loadSite(ctx, entry, sites[i], w, spec.MinNumObs)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				results[i] = load
			}
		}()
	}

	for i := range sites {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Loader) loadSite(ctx context.Context, entry catalog.Entry, site domain.SiteRecord, w window, minNumObs int) (SiteLoad, error) {
	start := time.Now()

	records, err := l.reader.ReadRecords(ctx, entry, site)
	if err != nil {
		return SiteLoad{}, err
	}
	l.metrics.RecordLoadDuration.Observe(time.Since(start).Seconds())

	inWindow := records[:0:0]
	for _, rec := range records {
		if w.contains(rec.Timestamp) {
			inWindow = append(inWindow, rec)
		}
	}

	if len(inWindow) < minNumObs {
		l.logger.Debug("site below coverage threshold, skipping",
			"site_id", site.SiteID,
			"in_window", len(inWindow),
			"min_num_obs", minNumObs,
		)
		l.metrics.SitesSkippedTotal.WithLabelValues("coverage").Inc()
		return SiteLoad{Site: site, Skipped: true}, nil
	}

	return SiteLoad{Site: site, Records: inWindow}, nil
}
