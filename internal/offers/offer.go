package offers

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifiers used in Offer.SourceProvider.
const (
	SourceAmadeus       = "amadeus"
	SourceSabre         = "sabre"
	SourceAviationstack = "aviationstack"
	SourceMock          = "MOCK"
)

type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Segment is one flown leg (single takeoff/landing pair).
type Segment struct {
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Departure    time.Time `json:"departure"`
	Arrival      time.Time `json:"arrival"`
	Duration     string    `json:"duration"`
	Airline      string    `json:"airline"`
	FlightNumber string    `json:"flight_number"`
}

type Segments struct {
	Outbound []Segment `json:"outbound"`
	Return   []Segment `json:"return,omitempty"`
}

// Offer is one normalized flight itinerary with price, schedule and
// provenance. Offers are created fresh per search and never persisted here;
// RawPayload is carried only so the originating provider can re-price the
// offer later.
type Offer struct {
	ID               string          `json:"id"`
	Price            Price           `json:"price"`
	Airline          string          `json:"airline"`
	Origin           string          `json:"origin"`
	Destination      string          `json:"destination"`
	DepartureAt      time.Time       `json:"departure_at"`
	ReturnAt         *time.Time      `json:"return_at,omitempty"`
	OutboundDuration string          `json:"outbound_duration"`
	ReturnDuration   string          `json:"return_duration,omitempty"`
	OutboundStops    int             `json:"outbound_stops"`
	ReturnStops      *int            `json:"return_stops,omitempty"`
	Segments         Segments        `json:"segments"`
	BookingSource    string          `json:"booking_source"`
	SourceProvider   string          `json:"source_provider"`
	Reliability      float64         `json:"reliability"`
	RawPayload       json.RawMessage `json:"-"`
}

// Fee is one line of a confirmed price breakdown.
type Fee struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// ConfirmedPrice is the provider's answer to a re-pricing request.
type ConfirmedPrice struct {
	Total                    decimal.Decimal `json:"total"`
	Base                     decimal.Decimal `json:"base"`
	Currency                 string          `json:"currency"`
	Fees                     []Fee           `json:"fees,omitempty"`
	LastTicketingDate        string          `json:"last_ticketing_date,omitempty"`
	BookableSeats            int             `json:"bookable_seats"`
	InstantTicketingRequired bool            `json:"instant_ticketing_required"`
}

// ConfirmedOffer pairs an offer with its original and reconfirmed price.
type ConfirmedOffer struct {
	Offer          Offer          `json:"offer"`
	OriginalPrice  Price          `json:"original_price"`
	ConfirmedPrice ConfirmedPrice `json:"confirmed_price"`
}
