package domain

import (
	"sort"
	"time"
)

// DataSource identifies the originating agency or network.
type DataSource string

// Supported data sources.
const (
	SourceUSGSNWIS  DataSource = "usgs_nwis"
	SourceUSDANRCS  DataSource = "usda_nrcs"
	SourceAmeriFlux DataSource = "ameriflux"
)

// Variable is the physical quantity observed.
type Variable string

// Supported variables.
const (
	VarStreamflow   Variable = "streamflow"
	VarWTD          Variable = "wtd"
	VarSWE          Variable = "swe"
	VarPrecip       Variable = "precipitation"
	VarTemperature  Variable = "temperature"
	VarSoilMoisture Variable = "soil moisture"
	VarLatentHeat   Variable = "latent heat flux"
	VarSensibleHeat Variable = "sensible heat flux"
	VarShortwave    Variable = "shortwave radiation"
	VarLongwave     Variable = "longwave radiation"
	VarVPD          Variable = "vapor pressure deficit"
	VarWindSpeed    Variable = "wind speed"
)

// Resolution is the sampling cadence of stored records.
type Resolution string

// Supported temporal resolutions.
const (
	Hourly        Resolution = "hourly"
	Daily         Resolution = "daily"
	Instantaneous Resolution = "instantaneous"
)

// Aggregation describes how raw samples were reduced into the stored value.
type Aggregation string

// Supported aggregations.
const (
	AggAverage       Aggregation = "average"
	AggInstantaneous Aggregation = "instantaneous"
	AggTotal         Aggregation = "total"
	AggTotalSnowAdj  Aggregation = "total, snow-adjusted"
	AggStartOfDay    Aggregation = "start-of-day"
	AggAccumulated   Aggregation = "accumulated"
	AggMinimum       Aggregation = "minimum"
	AggMaximum       Aggregation = "maximum"
)

// Range is a closed [min, max] interval.
type Range [2]float64

// Min returns the lower bound.
func (r Range) Min() float64 { return r[0] }

// Max returns the upper bound.
func (r Range) Max() float64 { return r[1] }

// Contains reports whether v falls inside the closed interval.
func (r Range) Contains(v float64) bool { return v >= r[0] && v <= r[1] }

// QuerySpec is the immutable input to a query. The five-part key
// (DataSource, Variable, TemporalResolution, Aggregation, DepthLevel) must
// be registered in the catalog; everything else is an optional filter.
type QuerySpec struct {
	DataSource         DataSource
	Variable           Variable
	TemporalResolution Resolution
	Aggregation        Aggregation

	// DepthLevel is the sensor depth in inches. Required iff
	// Variable == VarSoilMoisture.
	DepthLevel *int

	// DateStart and DateEnd are inclusive day-precision bounds. A nil bound
	// leaves that side of the window open.
	DateStart *time.Time
	DateEnd   *time.Time

	LatitudeRange  *Range
	LongitudeRange *Range
	SiteIDs        []string
	States         []string

	// SiteNetworks restricts the query to named site lists (camels,
	// hcdn2009, ...). Each name must be registered in the catalog for the
	// (data_source, variable) pair; membership comes from the archive's
	// network_lists directory and composes conjunctively with SiteIDs.
	SiteNetworks []string

	// MinNumObs is the coverage filter: sites with fewer in-window records
	// are excluded from the result. Minimum and default is 1.
	MinNumObs int

	ReturnMetadata bool
	AllAttributes  bool
}

// SiteAttributes holds the extended index columns beyond the fixed metadata
// projection. Present only when a query asks for all attributes.
type SiteAttributes struct {
	HUC                     string `json:"huc"`
	SiteQueryURL            string `json:"site_query_url"`
	DateMetadataLastUpdated string `json:"date_metadata_last_updated"`
	TZ                      string `json:"tz_cd"`
	DOI                     string `json:"doi"`
}

// SiteRecord is one row of the site index for a (data_source, variable)
// combination. The engine never owns or mutates the record file behind
// FilePath; it is a read-only pointer into the archive.
type SiteRecord struct {
	SiteID    string  `json:"site_id"`
	SiteName  string  `json:"site_name"`
	SiteType  string  `json:"site_type"`
	Agency    string  `json:"agency"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	VarID     int     `json:"var_id"`

	// First and last dates with any data, zero when the index has none.
	FirstDateDataAvailable time.Time `json:"first_date_data_available"`
	LastDateDataAvailable  time.Time `json:"last_date_data_available"`

	// RecordCount is the lifetime total from the index, never the
	// query-window count.
	RecordCount int64  `json:"record_count"`
	FilePath    string `json:"file_path"`

	Attributes *SiteAttributes `json:"attributes,omitempty"`
}

// ObservationRecord is a single (site, timestamp, value) observation. The
// timestamp keeps the source's native convention: UTC for hourly records,
// local site day for daily records.
type ObservationRecord struct {
	SiteID    string    `json:"site_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ObservationTable is the unified per-query observation result.
type ObservationTable struct {
	Rows []ObservationRecord `json:"rows"`
}

// Len returns the number of observation rows.
func (t ObservationTable) Len() int { return len(t.Rows) }

// SiteIDs returns the distinct site ids present, in first-appearance order.
func (t ObservationTable) SiteIDs() []string {
	seen := make(map[string]struct{}, len(t.Rows))
	var ids []string
	for _, r := range t.Rows {
		if _, ok := seen[r.SiteID]; ok {
			continue
		}
		seen[r.SiteID] = struct{}{}
		ids = append(ids, r.SiteID)
	}
	return ids
}

// SortChronological stably sorts rows by (site_id, timestamp) ascending.
// The default assembly order is site-index order; callers that need
// chronological output opt in here.
func (t *ObservationTable) SortChronological() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].SiteID != t.Rows[j].SiteID {
			return t.Rows[i].SiteID < t.Rows[j].SiteID
		}
		return t.Rows[i].Timestamp.Before(t.Rows[j].Timestamp)
	})
}

// MetadataColumns is the fixed reduced projection of the metadata table.
var MetadataColumns = []string{
	"site_id", "site_name", "site_type", "agency", "state",
	"latitude", "longitude", "var_id",
	"first_date_data_available", "last_date_data_available",
	"record_count", "file_path",
}

// MetadataTable holds per-site metadata for sites that survived all filters.
// With AllAttributes false, rows carry exactly the MetadataColumns projection
// (Attributes is nil on every row).
type MetadataTable struct {
	AllAttributes bool         `json:"all_attributes"`
	Rows          []SiteRecord `json:"rows"`
}

// Len returns the number of metadata rows.
func (t MetadataTable) Len() int { return len(t.Rows) }
