// Package domain models point-based hydrologic observations archived on a
// shared filesystem.
//
// # Archive layout
//
// The archive is a pre-downloaded, read-only corpus rooted at a single
// directory. A sqlite database at the root holds the site index: a `sites`
// table with per-site attributes and an `observations` table with per-variable
// availability (first/last date with data, lifetime record count, record file
// path). The two are joined on site_id for a given var_id to produce one flat
// index row per site.
//
// Observation records live in one CSV file per site (per variable), pointed to
// by the index row's file_path. The lone exception is instantaneous
// water-table depth, whose sparse discrete measurements are stored as rows in
// the index database itself rather than as per-site files.
//
// # Time conventions
//
// Timestamps are passed through in whatever convention the source uses:
// hourly records carry RFC 3339 UTC timestamps, daily records carry bare
// YYYY-MM-DD dates in the site's local-day convention. No normalization
// between the two is performed; a future normalization layer would sit on top
// of ObservationTable, not inside the loader.
//
// # Record counts
//
// SiteRecord.RecordCount is the site's lifetime total from the index,
// independent of any query window. The coverage filter (min_num_obs) counts
// in-window rows only and never rewrites the index figure.
package domain
