package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hydroframe/point-obs/internal/domain"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// observationsRequest carries the decoded /v1/observations query parameters.
// The four-part key is checked here; the semantic validation (catalog
// membership, depth rules) stays in the engine.
type observationsRequest struct {
	DataSource         string `validate:"required"`
	Variable           string `validate:"required"`
	TemporalResolution string `validate:"required"`
	Aggregation        string `validate:"required"`

	DepthLevel     *int
	DateStart      *time.Time
	DateEnd        *time.Time
	LatitudeRange  *domain.Range
	LongitudeRange *domain.Range
	SiteIDs        []string
	States         []string
	SiteNetworks   []string
	MinNumObs      int `validate:"gte=0"`
	ReturnMetadata bool
	AllAttributes  bool
}

func bindObservationsRequest(r *http.Request) (observationsRequest, error) {
	q := r.URL.Query()
	req := observationsRequest{
		DataSource:         q.Get("data_source"),
		Variable:           q.Get("variable"),
		TemporalResolution: q.Get("temporal_resolution"),
		Aggregation:        q.Get("aggregation"),
		SiteIDs:            splitList(q.Get("site_id")),
		States:             splitList(q.Get("state")),
		SiteNetworks:       splitList(q.Get("site_network")),
		ReturnMetadata:     q.Get("return_metadata") == "true",
		AllAttributes:      q.Get("all_attributes") == "true",
	}

	var err error
	if req.DepthLevel, err = parseOptionalInt(q.Get("depth_level"), "depth_level"); err != nil {
		return req, err
	}
	if req.DateStart, err = parseOptionalDate(q.Get("date_start"), "date_start"); err != nil {
		return req, err
	}
	if req.DateEnd, err = parseOptionalDate(q.Get("date_end"), "date_end"); err != nil {
		return req, err
	}
	if req.LatitudeRange, err = parseOptionalRange(q.Get("latitude_range"), "latitude_range"); err != nil {
		return req, err
	}
	if req.LongitudeRange, err = parseOptionalRange(q.Get("longitude_range"), "longitude_range"); err != nil {
		return req, err
	}
	if v := q.Get("min_num_obs"); v != "" {
		if req.MinNumObs, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("min_num_obs: %q is not an integer", v)
		}
	}

	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (req observationsRequest) toSpec() domain.QuerySpec {
	return domain.QuerySpec{
		DataSource:         domain.DataSource(req.DataSource),
		Variable:           domain.Variable(req.Variable),
		TemporalResolution: domain.Resolution(req.TemporalResolution),
		Aggregation:        domain.Aggregation(req.Aggregation),
		DepthLevel:         req.DepthLevel,
		DateStart:          req.DateStart,
		DateEnd:            req.DateEnd,
		LatitudeRange:      req.LatitudeRange,
		LongitudeRange:     req.LongitudeRange,
		SiteIDs:            req.SiteIDs,
		States:             req.States,
		SiteNetworks:       req.SiteNetworks,
		MinNumObs:          req.MinNumObs,
		ReturnMetadata:     req.ReturnMetadata,
		AllAttributes:      req.AllAttributes,
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

func parseOptionalInt(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not an integer", name, s)
	}
	return &n, nil
}

func parseOptionalDate(s, name string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", name, s)
	}
	return &t, nil
}

// parseOptionalRange decodes "min,max" into a closed interval. Bound order is
// validated by the engine, not here.
func parseOptionalRange(s, name string) (*domain.Range, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%s: %q is not a min,max pair", name, s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not numeric", name, parts[0])
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not numeric", name, parts[1])
	}
	return &domain.Range{lo, hi}, nil
}
