// Package catalog is the static registry of recognized observation products:
// every supported (data_source, variable, temporal_resolution, aggregation
// [, depth_level]) combination, with its storage location and expected units.
//
// The registry is a plain in-code lookup table. Resolution is side-effect
// free and safe for concurrent use; the "what's available" listing is a pure
// function over the same table.
package catalog

import (
	"fmt"
	"sort"

	"github.com/hydroframe/point-obs/internal/domain"
)

// Storage tags where a product's observation records live.
type Storage int

const (
	// StorageCSV products keep one CSV record file per site, pointed to by
	// the site index's file_path column.
	StorageCSV Storage = iota

	// StorageSQL products keep their sparse discrete records as rows in the
	// index database itself. Currently only instantaneous water-table depth.
	StorageSQL
)

// SoilMoistureDepths are the registered sensor depths in inches.
var SoilMoistureDepths = []int{2, 4, 8, 20, 40}

// Entry describes one registered product.
type Entry struct {
	VarID              int                `json:"var_id"`
	DataSource         domain.DataSource  `json:"data_source"`
	Variable           domain.Variable    `json:"variable"`
	TemporalResolution domain.Resolution  `json:"temporal_resolution"`
	Aggregation        domain.Aggregation `json:"aggregation"`

	// DepthLevel is the sensor depth in inches; zero for products without a
	// depth dimension.
	DepthLevel int `json:"depth_level,omitempty"`

	// Units the archived values are expressed in. Informational only; the
	// engine performs no conversion.
	Units string `json:"units"`

	// Column is the value column name inside the record files.
	Column string `json:"column"`

	// RecordDir is the record file directory relative to the archive root.
	// Empty for StorageSQL products.
	RecordDir string `json:"record_dir,omitempty"`

	Storage Storage `json:"-"`
}

type key struct {
	source      domain.DataSource
	variable    domain.Variable
	resolution  domain.Resolution
	aggregation domain.Aggregation
	depth       int
}

var registry = buildRegistry()

func buildRegistry() map[key]Entry {
	entries := []Entry{
		{VarID: 1, DataSource: domain.SourceUSGSNWIS, Variable: domain.VarStreamflow, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "cfs", Column: "streamflow", RecordDir: "streamflow/data/hourly"},
		{VarID: 2, DataSource: domain.SourceUSGSNWIS, Variable: domain.VarStreamflow, TemporalResolution: domain.Daily, Aggregation: domain.AggAverage, Units: "cfs", Column: "streamflow", RecordDir: "streamflow/data/daily"},
		{VarID: 3, DataSource: domain.SourceUSGSNWIS, Variable: domain.VarWTD, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "ft", Column: "wtd", RecordDir: "groundwater/data/hourly"},
		{VarID: 4, DataSource: domain.SourceUSGSNWIS, Variable: domain.VarWTD, TemporalResolution: domain.Daily, Aggregation: domain.AggAverage, Units: "ft", Column: "wtd", RecordDir: "groundwater/data/daily"},
		{VarID: 5, DataSource: domain.SourceUSGSNWIS, Variable: domain.VarWTD, TemporalResolution: domain.Instantaneous, Aggregation: domain.AggInstantaneous, Units: "ft", Column: "wtd", Storage: StorageSQL},

		{VarID: 6, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSWE, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, Units: "in", Column: "swe", RecordDir: "swe/data/daily"},
		{VarID: 7, DataSource: domain.SourceUSDANRCS, Variable: domain.VarPrecip, TemporalResolution: domain.Daily, Aggregation: domain.AggAccumulated, Units: "in", Column: "precip_acc", RecordDir: "point_meteorology/NRCS_precipitation/data/daily"},
		{VarID: 8, DataSource: domain.SourceUSDANRCS, Variable: domain.VarPrecip, TemporalResolution: domain.Daily, Aggregation: domain.AggTotal, Units: "in", Column: "precip_inc", RecordDir: "point_meteorology/NRCS_precipitation/data/daily"},
		{VarID: 9, DataSource: domain.SourceUSDANRCS, Variable: domain.VarPrecip, TemporalResolution: domain.Daily, Aggregation: domain.AggTotalSnowAdj, Units: "in", Column: "precip_inc_sa", RecordDir: "point_meteorology/NRCS_precipitation/data/daily"},
		{VarID: 10, DataSource: domain.SourceUSDANRCS, Variable: domain.VarTemperature, TemporalResolution: domain.Daily, Aggregation: domain.AggMinimum, Units: "degF", Column: "temp_min", RecordDir: "point_meteorology/NRCS_temperature/data/daily"},
		{VarID: 11, DataSource: domain.SourceUSDANRCS, Variable: domain.VarTemperature, TemporalResolution: domain.Daily, Aggregation: domain.AggMaximum, Units: "degF", Column: "temp_max", RecordDir: "point_meteorology/NRCS_temperature/data/daily"},
		{VarID: 12, DataSource: domain.SourceUSDANRCS, Variable: domain.VarTemperature, TemporalResolution: domain.Daily, Aggregation: domain.AggAverage, Units: "degF", Column: "temp_avg", RecordDir: "point_meteorology/NRCS_temperature/data/daily"},

		{VarID: 13, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSoilMoisture, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, DepthLevel: 2, Units: "pct", Column: "sms_2in", RecordDir: "soil_moisture/data/daily"},
		{VarID: 14, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSoilMoisture, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, DepthLevel: 4, Units: "pct", Column: "sms_4in", RecordDir: "soil_moisture/data/daily"},
		{VarID: 15, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSoilMoisture, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, DepthLevel: 8, Units: "pct", Column: "sms_8in", RecordDir: "soil_moisture/data/daily"},
		{VarID: 16, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSoilMoisture, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, DepthLevel: 20, Units: "pct", Column: "sms_20in", RecordDir: "soil_moisture/data/daily"},
		{VarID: 17, DataSource: domain.SourceUSDANRCS, Variable: domain.VarSoilMoisture, TemporalResolution: domain.Daily, Aggregation: domain.AggStartOfDay, DepthLevel: 40, Units: "pct", Column: "sms_40in", RecordDir: "soil_moisture/data/daily"},

		{VarID: 18, DataSource: domain.SourceAmeriFlux, Variable: domain.VarLatentHeat, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "W/m^2", Column: "latent heat flux", RecordDir: "ameriflux/data/hourly"},
		{VarID: 19, DataSource: domain.SourceAmeriFlux, Variable: domain.VarSensibleHeat, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "W/m^2", Column: "sensible heat flux", RecordDir: "ameriflux/data/hourly"},
		{VarID: 20, DataSource: domain.SourceAmeriFlux, Variable: domain.VarShortwave, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "W/m^2", Column: "shortwave radiation", RecordDir: "ameriflux/data/hourly"},
		{VarID: 21, DataSource: domain.SourceAmeriFlux, Variable: domain.VarLongwave, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "W/m^2", Column: "longwave radiation", RecordDir: "ameriflux/data/hourly"},
		{VarID: 22, DataSource: domain.SourceAmeriFlux, Variable: domain.VarVPD, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "hPa", Column: "vapor pressure deficit", RecordDir: "ameriflux/data/hourly"},
		{VarID: 23, DataSource: domain.SourceAmeriFlux, Variable: domain.VarTemperature, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "degC", Column: "air temperature", RecordDir: "ameriflux/data/hourly"},
		{VarID: 24, DataSource: domain.SourceAmeriFlux, Variable: domain.VarWindSpeed, TemporalResolution: domain.Hourly, Aggregation: domain.AggAverage, Units: "m/s", Column: "wind speed", RecordDir: "ameriflux/data/hourly"},
	}

	m := make(map[key]Entry, len(entries))
	for _, e := range entries {
		m[key{e.DataSource, e.Variable, e.TemporalResolution, e.Aggregation, e.DepthLevel}] = e
	}
	return m
}

// Resolve maps a validated parameter tuple to its catalog entry.
//
// It fails with domain.ErrMissingDepth when variable is soil moisture and no
// depth is given, domain.ErrInvalidDepth when the given depth is not a
// registered sensor depth, and domain.ErrUnsupportedCombination for any tuple
// not in the registry. Depth is ignored for variables without a depth
// dimension.
func Resolve(source domain.DataSource, variable domain.Variable, resolution domain.Resolution, aggregation domain.Aggregation, depth *int) (Entry, error) {
	k := key{source: source, variable: variable, resolution: resolution, aggregation: aggregation}

	if variable == domain.VarSoilMoisture {
		if depth == nil {
			return Entry{}, domain.ErrMissingDepth
		}
		if !validDepth(*depth) {
			return Entry{}, fmt.Errorf("%w: %d in (registered: %v)", domain.ErrInvalidDepth, *depth, SoilMoistureDepths)
		}
		k.depth = *depth
	}

	e, ok := registry[k]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s/%s/%s", domain.ErrUnsupportedCombination,
			source, variable, resolution, aggregation)
	}
	return e, nil
}

func validDepth(d int) bool {
	for _, v := range SoilMoistureDepths {
		if v == d {
			return true
		}
	}
	return false
}

// Entries returns every registered product ordered by var_id. The slice is a
// fresh copy; callers may not reach the registry itself.
func Entries() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VarID < out[j].VarID })
	return out
}

// Describe renders a one-line human-readable summary of an entry, used by the
// availability listing.
func (e Entry) Describe() string {
	if e.DepthLevel > 0 {
		return fmt.Sprintf("%s %s (%s, %s, depth %din) [%s]",
			e.DataSource, e.Variable, e.TemporalResolution, e.Aggregation, e.DepthLevel, e.Units)
	}
	return fmt.Sprintf("%s %s (%s, %s) [%s]",
		e.DataSource, e.Variable, e.TemporalResolution, e.Aggregation, e.Units)
}
