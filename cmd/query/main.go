// Command query runs one observation query against a local archive and
// prints the result as CSV on stdout, with optional site metadata on stderr.
// With -list it prints the catalog of recognized products instead.
//
// Usage:
//
//	go run ./cmd/query \
//	  -archive /hydrodata/national_obs \
//	  -data-source usgs_nwis -variable streamflow \
//	  -resolution daily -aggregation average \
//	  -date-start 2020-01-01 -date-end 2020-12-31 \
//	  -lat 45,46 -lon=-110,-108 -metadata
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hydroframe/point-obs/internal/archive"
	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
	"github.com/hydroframe/point-obs/internal/observability"
	"github.com/hydroframe/point-obs/internal/query"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	root := flag.String("archive", "", "archive root directory")
	dbPath := flag.String("db", "", "site index database (default <archive>/point_obs.sqlite)")
	list := flag.Bool("list", false, "print the catalog of recognized products and exit")

	dataSource := flag.String("data-source", "", "data source, e.g. usgs_nwis")
	variable := flag.String("variable", "", "variable, e.g. streamflow")
	resolution := flag.String("resolution", "", "temporal resolution: hourly, daily, instantaneous")
	aggregation := flag.String("aggregation", "", "aggregation, e.g. average")
	depth := flag.Int("depth", 0, "depth level in inches (soil moisture only)")
	dateStart := flag.String("date-start", "", "inclusive start date, YYYY-MM-DD")
	dateEnd := flag.String("date-end", "", "inclusive end date, YYYY-MM-DD")
	lat := flag.String("lat", "", "latitude range as min,max")
	lon := flag.String("lon", "", "longitude range as min,max")
	siteIDs := flag.String("sites", "", "comma-separated site ids")
	states := flag.String("states", "", "comma-separated state codes")
	networks := flag.String("networks", "", "comma-separated site network names, e.g. camels,hcdn2009")
	minNumObs := flag.Int("min-num-obs", 1, "minimum in-window observations per site")
	metadata := flag.Bool("metadata", false, "print site metadata to stderr")
	allAttrs := flag.Bool("all-attributes", false, "include extended attributes in metadata")
	chronological := flag.Bool("chronological", false, "sort output by (site_id, timestamp)")
	flag.Parse()

	if *list {
		for _, e := range catalog.Entries() {
			fmt.Println(e.Describe())
		}
		return nil
	}

	if *root == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -archive")
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*root, archive.DefaultDBName)
	}

	spec, err := buildSpec(*dataSource, *variable, *resolution, *aggregation, *depth,
		*dateStart, *dateEnd, *lat, *lon, *siteIDs, *states, *networks, *minNumObs, *metadata, *allAttrs)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	arc, err := archive.Open(*root, *dbPath, logger)
	if err != nil {
		return err
	}
	defer arc.Close()

	engine := query.New(arc, arc, arc, logger, metrics, 8)

	obs, md, err := engine.Query(context.Background(), spec)
	if err != nil {
		return err
	}
	if *chronological {
		obs.SortChronological()
	}

	if err := writeObservations(os.Stdout, obs); err != nil {
		return err
	}
	if md != nil {
		printMetadata(os.Stderr, *md)
	}
	return nil
}

func buildSpec(dataSource, variable, resolution, aggregation string, depth int,
	dateStart, dateEnd, lat, lon, siteIDs, states, networks string,
	minNumObs int, metadata, allAttrs bool) (domain.QuerySpec, error) {

	spec := domain.QuerySpec{
		DataSource:         domain.DataSource(dataSource),
		Variable:           domain.Variable(variable),
		TemporalResolution: domain.Resolution(resolution),
		Aggregation:        domain.Aggregation(aggregation),
		SiteIDs:            splitList(siteIDs),
		States:             splitList(states),
		SiteNetworks:       splitList(networks),
		MinNumObs:          minNumObs,
		ReturnMetadata:     metadata,
		AllAttributes:      allAttrs,
	}
	if depth > 0 {
		spec.DepthLevel = &depth
	}

	var err error
	if spec.DateStart, err = parseDate(dateStart, "date-start"); err != nil {
		return spec, err
	}
	if spec.DateEnd, err = parseDate(dateEnd, "date-end"); err != nil {
		return spec, err
	}
	if spec.LatitudeRange, err = parseRange(lat, "lat"); err != nil {
		return spec, err
	}
	if spec.LongitudeRange, err = parseRange(lon, "lon"); err != nil {
		return spec, err
	}
	return spec, nil
}

func writeObservations(f *os.File, obs domain.ObservationTable) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"site_id", "timestamp", "value"}); err != nil {
		return err
	}
	for _, rec := range obs.Rows {
		row := []string{
			rec.SiteID,
			rec.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printMetadata(f *os.File, md domain.MetadataTable) {
	fmt.Fprintf(f, "\n%d site(s):\n", md.Len())
	for _, s := range md.Rows {
		fmt.Fprintf(f, "  %-12s %-30s %s (%.4f, %.4f) records=%d\n",
			s.SiteID, s.SiteName, s.State, s.Latitude, s.Longitude, s.RecordCount)
		if s.Attributes != nil && s.Attributes.DOI != "" {
			fmt.Fprintf(f, "               doi=%s\n", s.Attributes.DOI)
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s, name string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("-%s: %q is not a YYYY-MM-DD date", name, s)
	}
	return &t, nil
}

func parseRange(s, name string) (*domain.Range, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("-%s: %q is not a min,max pair", name, s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("-%s: %q is not numeric", name, parts[0])
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("-%s: %q is not numeric", name, parts[1])
	}
	return &domain.Range{lo, hi}, nil
}
