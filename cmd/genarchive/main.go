// Command genarchive builds a small deterministic mock archive: a site index
// database plus per-site record files laid out the way the query engine reads
// them. It exists for local runs and demos; the test suites build their own
// fixtures the same way.
//
// Usage:
//
//	go run ./cmd/genarchive -out ./testarchive
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hydroframe/point-obs/internal/archive"
	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
)

var baseDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// mockSite pairs a site definition with the products it reports and how many
// records each gets.
type mockSite struct {
	site     domain.SiteRecord
	products []mockProduct
}

type mockProduct struct {
	variable   domain.Variable
	resolution domain.Resolution
	agg        domain.Aggregation
	depth      *int
	days       int
}

func main() {
	out := flag.String("out", "", "output directory for the mock archive")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		log.Fatal("missing required flag: -out")
	}

	if err := run(*out); err != nil {
		log.Fatal(err)
	}
}

func run(out string) error {
	b, err := archive.NewBuilder(out)
	if err != nil {
		return err
	}
	defer b.Close()

	depth2 := 2
	sites := []mockSite{
		{
			site: domain.SiteRecord{
				SiteID: "01019000", SiteName: "Grand Lake Stream", SiteType: "stream gauge",
				Agency: "USGS", State: "ME", Latitude: 45.1726, Longitude: -67.7911,
				Attributes: &domain.SiteAttributes{HUC: "01050002", TZ: "EST"},
			},
			products: []mockProduct{
				{variable: domain.VarStreamflow, resolution: domain.Daily, agg: domain.AggAverage, days: 366},
				{variable: domain.VarStreamflow, resolution: domain.Hourly, agg: domain.AggAverage, days: 14},
			},
		},
		{
			site: domain.SiteRecord{
				SiteID: "01027200", SiteName: "Pleasant River", SiteType: "stream gauge",
				Agency: "USGS", State: "ME", Latitude: 44.9104, Longitude: -68.2665,
				Attributes: &domain.SiteAttributes{HUC: "01020004", TZ: "EST"},
			},
			products: []mockProduct{
				{variable: domain.VarStreamflow, resolution: domain.Daily, agg: domain.AggAverage, days: 366},
			},
		},
		{
			site: domain.SiteRecord{
				SiteID: "396733085524601", SiteName: "Flatrock River Well", SiteType: "well",
				Agency: "USGS", State: "IN", Latitude: 39.6733, Longitude: -85.5246,
			},
			products: []mockProduct{
				{variable: domain.VarWTD, resolution: domain.Instantaneous, agg: domain.AggInstantaneous, days: 24},
			},
		},
		{
			site: domain.SiteRecord{
				SiteID: "2170:CO:SNTL", SiteName: "Joe Wright Snotel", SiteType: "snotel",
				Agency: "NRCS", State: "CO", Latitude: 40.5375, Longitude: -105.8876,
			},
			products: []mockProduct{
				{variable: domain.VarSWE, resolution: domain.Daily, agg: domain.AggStartOfDay, days: 366},
				{variable: domain.VarSoilMoisture, resolution: domain.Daily, agg: domain.AggStartOfDay, depth: &depth2, days: 366},
			},
		},
		{
			site: domain.SiteRecord{
				SiteID: "US-Ne1", SiteName: "Mead Irrigated Rotation", SiteType: "flux tower",
				Agency: "AmeriFlux", State: "NE", Latitude: 41.1651, Longitude: -96.4766,
				Attributes: &domain.SiteAttributes{DOI: "10.17190/AMF/1246084"},
			},
			products: []mockProduct{
				{variable: domain.VarLatentHeat, resolution: domain.Hourly, agg: domain.AggAverage, days: 30},
			},
		},
	}

	total := 0
	for _, ms := range sites {
		if err := b.AddSite(ms.site); err != nil {
			return err
		}
		for _, p := range ms.products {
			entry, err := catalog.Resolve(sourceFor(ms.site.Agency), p.variable, p.resolution, p.agg, p.depth)
			if err != nil {
				return fmt.Errorf("site %s: %w", ms.site.SiteID, err)
			}
			recs := synthesize(entry, ms.site.SiteID, p.days)
			if err := b.AddObservations(entry, ms.site.SiteID, recs); err != nil {
				return err
			}
			total += len(recs)
			log.Printf("%s var_id=%d: %d records", ms.site.SiteID, entry.VarID, len(recs))
		}
	}

	if err := b.AddNetworkList(domain.SourceUSGSNWIS, domain.VarStreamflow, "camels",
		[]string{"01019000"}); err != nil {
		return err
	}
	if err := b.AddNetworkList(domain.SourceUSGSNWIS, domain.VarStreamflow, "hcdn2009",
		[]string{"01019000", "01027200"}); err != nil {
		return err
	}

	log.Printf("mock archive written to %s (%d records, index %s)", out, total, b.DBPath())
	return nil
}

func sourceFor(agency string) domain.DataSource {
	switch agency {
	case "NRCS":
		return domain.SourceUSDANRCS
	case "AmeriFlux":
		return domain.SourceAmeriFlux
	default:
		return domain.SourceUSGSNWIS
	}
}

// synthesize produces a deterministic seasonal series so repeated runs build
// byte-identical archives.
func synthesize(entry catalog.Entry, siteID string, days int) []domain.ObservationRecord {
	seed := float64(len(siteID) + entry.VarID)

	var out []domain.ObservationRecord
	if entry.TemporalResolution == domain.Hourly {
		for h := range days * 24 {
			out = append(out, domain.ObservationRecord{
				SiteID:    siteID,
				Timestamp: baseDate.Add(time.Duration(h) * time.Hour),
				Value:     round3(seed + 10*math.Sin(float64(h)/24)),
			})
		}
		return out
	}
	for d := range days {
		out = append(out, domain.ObservationRecord{
			SiteID:    siteID,
			Timestamp: baseDate.AddDate(0, 0, d),
			Value:     round3(seed + 5*math.Sin(float64(d)/30)),
		})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
