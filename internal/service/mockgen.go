package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
)

// MockGenerator produces synthetic offers with a deterministic shape for the
// requested route. It is used only when every real provider yields nothing
// and the fallback flag is on; consumers can tell its output apart by
// SourceProvider == "MOCK".
type MockGenerator struct {
	currency string
}

func NewMockGenerator(currency string) *MockGenerator {
	return &MockGenerator{currency: currency}
}

var mockAirlines = []struct {
	name   string
	prefix string
	depart int // minutes past midnight
	flight time.Duration
	stops  int
}{
	{"LATAM Airlines", "LA", 6*60 + 35, 1*time.Hour + 5*time.Minute, 0},
	{"Gol Linhas Aéreas", "G3", 9*60 + 10, 1*time.Hour + 15*time.Minute, 0},
	{"Azul Linhas Aéreas", "AD", 14*60 + 45, 2*time.Hour + 40*time.Minute, 1},
	{"LATAM Airlines", "LA", 21*60 + 20, 1*time.Hour + 10*time.Minute, 0},
}

// Generate builds one offer per template airline. Prices vary with a simple
// route-derived salt so different searches do not all look identical, but the
// shape of the output never changes.
func (g *MockGenerator) Generate(q providers.Query) []offers.Offer {
	salt := float64(len(q.Origin)*13 + len(q.Destination)*7)

	out := make([]offers.Offer, 0, len(mockAirlines))
	for i, tpl := range mockAirlines {
		price := decimal.NewFromFloat(450 + salt + float64(i*85))

		dep := q.DepartureDate.Truncate(24 * time.Hour).Add(time.Duration(tpl.depart) * time.Minute)
		outbound := g.leg(q.Origin, q.Destination, dep, tpl.flight, tpl.stops, tpl.prefix, tpl.name, i)

		o := offers.Offer{
			ID:               fmt.Sprintf("MOCK-%s", uuid.NewString()[:8]),
			Price:            offers.Price{Amount: price, Currency: g.currency},
			Airline:          tpl.name,
			Origin:           q.Origin,
			Destination:      q.Destination,
			DepartureAt:      dep,
			OutboundDuration: offers.FormatDuration(tpl.flight),
			OutboundStops:    tpl.stops,
			Segments:         offers.Segments{Outbound: outbound},
			BookingSource:    "synthetic",
			SourceProvider:   offers.SourceMock,
		}

		if q.ReturnDate != nil {
			retDep := q.ReturnDate.Truncate(24 * time.Hour).Add(time.Duration(tpl.depart) * time.Minute)
			retStops := 0
			o.ReturnAt = &retDep
			o.ReturnDuration = offers.FormatDuration(tpl.flight)
			o.ReturnStops = &retStops
			o.Segments.Return = g.leg(q.Destination, q.Origin, retDep, tpl.flight, 0, tpl.prefix, tpl.name, i+100)
		}

		o.Reliability = offers.Score(o)
		out = append(out, o)
	}
	return out
}

// leg builds stops+1 chronologically ordered segments covering the whole
// flight time, with a fixed connection point for multi-segment itineraries.
func (g *MockGenerator) leg(origin, destination string, dep time.Time,
	total time.Duration, stops int, prefix, airline string, seed int) []offers.Segment {

	n := stops + 1
	segDur := total / time.Duration(n)
	segs := make([]offers.Segment, 0, n)
	from := origin
	at := dep
	for i := 0; i < n; i++ {
		to := destination
		if i < n-1 {
			to = "CNF" // fixed synthetic connection
		}
		segs = append(segs, offers.Segment{
			Origin:       from,
			Destination:  to,
			Departure:    at,
			Arrival:      at.Add(segDur),
			Duration:     offers.FormatDuration(segDur),
			Airline:      airline,
			FlightNumber: fmt.Sprintf("%s%d", prefix, 1000+seed*10+i),
		})
		from = to
		at = at.Add(segDur)
	}
	return segs
}
