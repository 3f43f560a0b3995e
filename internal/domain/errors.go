package domain

import "errors"

// Validation errors: the query itself is malformed. Raised before any file
// access; retrying without fixing the query can never succeed.
var (
	// ErrUnsupportedCombination means the (data_source, variable,
	// temporal_resolution, aggregation[, depth_level]) tuple is not in the
	// catalog.
	ErrUnsupportedCombination = errors.New("unsupported combination of data_source, variable, temporal_resolution, and aggregation")

	// ErrMissingDepth means variable is soil moisture but no depth_level
	// was provided.
	ErrMissingDepth = errors.New("depth_level is required for soil moisture queries")

	// ErrInvalidDepth means a depth_level was provided but is not one of
	// the registered sensor depths.
	ErrInvalidDepth = errors.New("depth_level is not a registered sensor depth")

	// ErrInvalidRange means a numeric constraint is malformed: a
	// latitude/longitude range with min > max, or min_num_obs below 1.
	ErrInvalidRange = errors.New("invalid range")

	// ErrUnknownNetwork means a site_networks name is not registered for
	// the query's (data_source, variable) pair.
	ErrUnknownNetwork = errors.New("unrecognized site network")
)

// Archive-integrity errors: the backing store disagrees with its own index.
// Surfaced immediately and never retried by the engine; the condition is not
// transient.
var (
	// ErrArchiveUnavailable means the site index, or another artifact the
	// index implies must exist (a network membership list), could not be
	// read at all.
	ErrArchiveUnavailable = errors.New("archive site index unavailable")

	// ErrRecordFileMissing means the index points at a record file that does
	// not resolve to a readable file. Fatal for the whole query: it signals
	// archive corruption, not a legitimate absence of data.
	ErrRecordFileMissing = errors.New("record file referenced by index is missing")
)
