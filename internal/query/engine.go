// Package query implements the observation query engine: resolving a
// validated parameter tuple through the catalog, narrowing the site index,
// loading and windowing per-site records, and assembling the result tables.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
	"github.com/hydroframe/point-obs/internal/observability"
)

// SiteLister resolves a product's var_id to its site index rows.
type SiteLister interface {
	ListSites(ctx context.Context, varID int) ([]domain.SiteRecord, error)
}

// NetworkLister resolves a named site network to its member site ids.
type NetworkLister interface {
	NetworkSiteIDs(ctx context.Context, source domain.DataSource, variable domain.Variable, network string) ([]string, error)
}

// Engine is the query resolution and filtering core. It holds no per-query
// state and is safe for concurrent use.
type Engine struct {
	index    SiteLister
	networks NetworkLister
	loader   *Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Engine over the given site index, network lists, and record
// reader, with at most workers concurrent per-site loads.
func New(index SiteLister, networks NetworkLister, reader RecordReader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Engine {
	return &Engine{
		index:    index,
		networks: networks,
		loader:   NewLoader(reader, logger, metrics, workers),
		logger:   logger,
		metrics:  metrics,
	}
}

// Query resolves spec against the archive and returns the unified observation
// table plus, when spec.ReturnMetadata is set, the metadata table for the
// surviving sites.
//
// Validation errors (unsupported combination, depth rules, malformed ranges)
// are returned before any file access. Archive-integrity errors abort the
// query. Zero matching sites is not an error: the tables come back empty.
func (e *Engine) Query(ctx context.Context, spec domain.QuerySpec) (domain.ObservationTable, *domain.MetadataTable, error) {
	start := time.Now()

	obs, md, err := e.run(ctx, spec)

	e.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	e.metrics.QueriesTotal.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		if outcome(err) == "archive_error" {
			e.metrics.ArchiveErrorsTotal.Inc()
		}
		e.logger.Error("query failed",
			"data_source", spec.DataSource,
			"variable", spec.Variable,
			"error", err,
		)
		return domain.ObservationTable{}, nil, err
	}

	e.metrics.RecordsLoadedTotal.Add(float64(obs.Len()))
	e.logger.Info("query served",
		"data_source", spec.DataSource,
		"variable", spec.Variable,
		"temporal_resolution", spec.TemporalResolution,
		"aggregation", spec.Aggregation,
		"rows", obs.Len(),
		"sites", len(obs.SiteIDs()),
		"duration", time.Since(start),
	)
	return obs, md, nil
}

func (e *Engine) run(ctx context.Context, spec domain.QuerySpec) (domain.ObservationTable, *domain.MetadataTable, error) {
	spec, err := validate(spec)
	if err != nil {
		return domain.ObservationTable{}, nil, err
	}

	entry, err := catalog.Resolve(spec.DataSource, spec.Variable, spec.TemporalResolution, spec.Aggregation, spec.DepthLevel)
	if err != nil {
		return domain.ObservationTable{}, nil, err
	}

	networkIDs, err := e.resolveNetworks(ctx, spec)
	if err != nil {
		return domain.ObservationTable{}, nil, err
	}

	sites, err := e.index.ListSites(ctx, entry.VarID)
	if err != nil {
		return domain.ObservationTable{}, nil, err
	}
	e.metrics.SitesConsidered.Observe(float64(len(sites)))

	candidates := FilterSites(sites, spec)
	candidates = FilterByNetwork(candidates, networkIDs)
	e.metrics.SitesSkippedTotal.WithLabelValues("filter").Add(float64(len(sites) - len(candidates)))

	pruned := PruneByAvailability(candidates, spec.DateStart, spec.DateEnd)
	e.metrics.SitesSkippedTotal.WithLabelValues("availability").Add(float64(len(candidates) - len(pruned)))
	e.metrics.SitesMatched.Observe(float64(len(pruned)))

	loads, err := e.loader.LoadAll(ctx, entry, pruned, spec)
	if err != nil {
		return domain.ObservationTable{}, nil, err
	}

	obs, md := Assemble(loads, spec.ReturnMetadata, spec.AllAttributes)
	return obs, md, nil
}

// validate applies the pre-I/O checks: range well-formedness and the coverage
// threshold floor. A zero MinNumObs means "unset" and takes the default of 1.
func validate(spec domain.QuerySpec) (domain.QuerySpec, error) {
	if r := spec.LatitudeRange; r != nil && r.Min() > r.Max() {
		return spec, fmt.Errorf("%w: latitude_range [%g, %g]", domain.ErrInvalidRange, r.Min(), r.Max())
	}
	if r := spec.LongitudeRange; r != nil && r.Min() > r.Max() {
		return spec, fmt.Errorf("%w: longitude_range [%g, %g]", domain.ErrInvalidRange, r.Min(), r.Max())
	}
	if s, en := spec.DateStart, spec.DateEnd; s != nil && en != nil && s.After(*en) {
		return spec, fmt.Errorf("%w: date_start %s after date_end %s",
			domain.ErrInvalidRange, s.Format("2006-01-02"), en.Format("2006-01-02"))
	}

	for _, network := range spec.SiteNetworks {
		if !catalog.ValidNetwork(spec.DataSource, spec.Variable, network) {
			return spec, fmt.Errorf("%w: %q for %s/%s (registered: %v)",
				domain.ErrUnknownNetwork, network, spec.DataSource, spec.Variable,
				catalog.Networks(spec.DataSource, spec.Variable))
		}
	}

	switch {
	case spec.MinNumObs == 0:
		spec.MinNumObs = 1
	case spec.MinNumObs < 0:
		return spec, fmt.Errorf("%w: min_num_obs %d", domain.ErrInvalidRange, spec.MinNumObs)
	}
	return spec, nil
}

// resolveNetworks unions the membership of every requested network. The
// result is nil when the query names none, so the filter can tell "no
// criterion" apart from an empty membership.
func (e *Engine) resolveNetworks(ctx context.Context, spec domain.QuerySpec) (map[string]struct{}, error) {
	if len(spec.SiteNetworks) == 0 {
		return nil, nil
	}
	ids := make(map[string]struct{})
	for _, network := range spec.SiteNetworks {
		members, err := e.networks.NetworkSiteIDs(ctx, spec.DataSource, spec.Variable, network)
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// IsValidationError reports whether err is a query-validation failure the
// caller must fix, as opposed to an archive-integrity failure.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedCombination) ||
		errors.Is(err, domain.ErrMissingDepth) ||
		errors.Is(err, domain.ErrInvalidDepth) ||
		errors.Is(err, domain.ErrInvalidRange) ||
		errors.Is(err, domain.ErrUnknownNetwork)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsValidationError(err):
		return "validation_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "archive_error"
	}
}
