package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/config"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
)

const (
	aviationstackTimeout    = 10 * time.Second
	aviationstackMaxRecords = 10
)

// Aviationstack is the validation-only secondary feed. It corroborates that a
// route is actually flown; it carries no fares, so every draft it emits has a
// zero price and never wins a price comparison.
type Aviationstack struct {
	host   string
	path   string
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

func NewAviationstack(cfg *config.Config, log zerolog.Logger) *Aviationstack {
	return &Aviationstack{
		host:   cfg.AviationstackHost,
		path:   "/v1/flights",
		apiKey: cfg.AviationstackAPIKey,
		client: http.DefaultClient,
		log:    log.With().Str("provider", offers.SourceAviationstack).Logger(),
	}
}

func (a *Aviationstack) Name() string { return offers.SourceAviationstack }

func (a *Aviationstack) Search(ctx context.Context, q Query) ([]offers.Draft, error) {
	if a.apiKey == "" {
		return nil, newError(KindAuthentication, a.Name(), "API key missing, check configuration")
	}

	ctx, cancel := context.WithTimeout(ctx, aviationstackTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("access_key", a.apiKey)
	params.Set("dep_iata", q.Origin)
	params.Set("arr_iata", q.Destination)
	params.Set("flight_date", q.DepartureDate.Format(dateLayout))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, a.host+a.path+"?"+params.Encode(), nil)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fromTransport(a.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fromStatus(a.Name(), resp.StatusCode, readErrorDetail(resp.Body))
	}

	var payload struct {
		Data []struct {
			FlightDate string `json:"flight_date"`
			Departure  struct {
				Iata      string `json:"iata"`
				Scheduled string `json:"scheduled"`
			} `json:"departure"`
			Arrival struct {
				Iata      string `json:"iata"`
				Scheduled string `json:"scheduled"`
			} `json:"arrival"`
			Airline struct {
				Name string `json:"name"`
				Iata string `json:"iata"`
			} `json:"airline"`
			Flight struct {
				Iata string `json:"iata"`
			} `json:"flight"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: a.Name(), Message: "bad response", cause: err}
	}

	records := payload.Data
	if len(records) > aviationstackMaxRecords {
		records = records[:aviationstackMaxRecords]
	}

	out := make([]offers.Draft, 0, len(records))
	for _, r := range records {
		if r.Flight.Iata == "" {
			continue
		}
		dep := parseAviationstackTime(r.Departure.Scheduled)
		arr := parseAviationstackTime(r.Arrival.Scheduled)
		seg := offers.Segment{
			Origin:       r.Departure.Iata,
			Destination:  r.Arrival.Iata,
			Departure:    dep,
			Arrival:      arr,
			Airline:      r.Airline.Name,
			FlightNumber: r.Flight.Iata,
		}
		if !dep.IsZero() && !arr.IsZero() && arr.After(dep) {
			seg.Duration = offers.FormatDuration(arr.Sub(dep))
		}
		out = append(out, offers.Draft{
			ID:          offers.SourceAviationstack + "-" + r.Flight.Iata + "-" + r.FlightDate,
			AirlineName: r.Airline.Name,
			AirlineCode: r.Airline.Iata,
			Origin:      q.Origin,
			Destination: q.Destination,
			DepartureAt: dep,
			Outbound:    []offers.Segment{seg},
		})
	}
	return out, nil
}

func parseAviationstackTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
