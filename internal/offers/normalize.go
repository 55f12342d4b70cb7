package offers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the provider-shaped record adapters hand to Normalize. Fields the
// provider did not supply stay zero and pick up defaults during
// normalization.
type Draft struct {
	ID            string
	Amount        decimal.Decimal
	Currency      string
	AirlineName   string
	AirlineCode   string
	Origin        string
	Destination   string
	DepartureAt   time.Time
	ReturnAt      *time.Time
	OutboundDur   string
	ReturnDur     string
	Outbound      []Segment
	Return        []Segment
	BookingSource string
	RawPayload    json.RawMessage
}

var (
	ErrNoOutboundSegments = errors.New("offer has no outbound segments")
	ErrNegativePrice      = errors.New("offer has a negative price")
)

// Normalize turns a draft into a canonical Offer, stamping provenance and
// filling defaults. Carrier codes are resolved through the carriers table,
// missing currencies get defaultCurrency. An empty outbound segment list or
// a return date without return segments is a data error, not an offer with
// -1 stops.
func Normalize(d Draft, source string, carriers map[string]string, defaultCurrency string) (Offer, error) {
	if len(d.Outbound) == 0 {
		return Offer{}, fmt.Errorf("%s offer %q: %w", source, d.ID, ErrNoOutboundSegments)
	}
	if d.ReturnAt != nil && len(d.Return) == 0 {
		return Offer{}, fmt.Errorf("%s offer %q: return date without return segments", source, d.ID)
	}
	if d.Amount.IsNegative() {
		return Offer{}, fmt.Errorf("%s offer %q: %w", source, d.ID, ErrNegativePrice)
	}

	currency := d.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	airline := d.AirlineName
	if airline == "" && d.AirlineCode != "" {
		if name, ok := carriers[strings.ToUpper(d.AirlineCode)]; ok {
			airline = name
		} else {
			airline = strings.ToUpper(d.AirlineCode)
		}
	}

	departureAt := d.DepartureAt
	if departureAt.IsZero() {
		departureAt = d.Outbound[0].Departure
	}

	outDur := d.OutboundDur
	if outDur == "" {
		outDur = spanDuration(d.Outbound)
	}

	offer := Offer{
		ID:               d.ID,
		Price:            Price{Amount: d.Amount, Currency: currency},
		Airline:          airline,
		Origin:           strings.ToUpper(d.Origin),
		Destination:      strings.ToUpper(d.Destination),
		DepartureAt:      departureAt,
		OutboundDuration: outDur,
		OutboundStops:    len(d.Outbound) - 1,
		Segments:         Segments{Outbound: d.Outbound},
		BookingSource:    d.BookingSource,
		SourceProvider:   source,
		RawPayload:       d.RawPayload,
	}

	if len(d.Return) > 0 {
		returnAt := d.ReturnAt
		if returnAt == nil {
			t := d.Return[0].Departure
			returnAt = &t
		}
		retStops := len(d.Return) - 1
		retDur := d.ReturnDur
		if retDur == "" {
			retDur = spanDuration(d.Return)
		}
		offer.ReturnAt = returnAt
		offer.ReturnDuration = retDur
		offer.ReturnStops = &retStops
		offer.Segments.Return = d.Return
	}

	return offer, nil
}

// spanDuration formats first-departure to last-arrival across segments.
func spanDuration(segs []Segment) string {
	first := segs[0].Departure
	last := segs[len(segs)-1].Arrival
	if first.IsZero() || last.IsZero() || last.Before(first) {
		return ""
	}
	return FormatDuration(last.Sub(first))
}

// FormatDuration renders a duration as "2h 35m".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
