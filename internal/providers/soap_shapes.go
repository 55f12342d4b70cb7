package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
)

// The legacy webservice has shipped several envelope generations and never
// versioned them. Instead of guessing, each known shape is a named matcher:
// payload in, offer records or nil out. Matchers run in priority order and
// the first non-nil result wins.
type shapeMatcher struct {
	name  string
	match func(payload map[string]interface{}) []map[string]interface{}
}

var availabilityShapes = []shapeMatcher{
	{"availability_result", matchWrapperKey("GetAvailabilityResult")},
	{"return_wrapper", matchWrapperKey("return")},
	{"data_wrapper", matchWrapperKey("data")},
	{"bare_list", matchBareList},
	{"single_offer", matchSingleOffer},
}

func extractOfferRecords(payload map[string]interface{}) []map[string]interface{} {
	for _, shape := range availabilityShapes {
		if recs := shape.match(payload); recs != nil {
			return recs
		}
	}
	return nil
}

// matchWrapperKey finds the named key anywhere in the payload and coerces its
// value (a list, a {Flight: [...]}-style holder, or a single record) into
// offer records.
func matchWrapperKey(key string) func(map[string]interface{}) []map[string]interface{} {
	return func(payload map[string]interface{}) []map[string]interface{} {
		v, ok := findKey(payload, key)
		if !ok {
			return nil
		}
		return coerceRecords(v)
	}
}

// matchBareList applies when the response element directly holds one
// repeated child, e.g. <Flights><Flight/><Flight/></Flights>.
func matchBareList(payload map[string]interface{}) []map[string]interface{} {
	for _, v := range payload {
		if list, ok := v.([]interface{}); ok {
			return coerceRecords(list)
		}
		if inner, ok := v.(map[string]interface{}); ok && len(inner) == 1 {
			for _, iv := range inner {
				if list, ok := iv.([]interface{}); ok {
					return coerceRecords(list)
				}
			}
		}
	}
	return nil
}

// matchSingleOffer treats the whole payload as one offer, provided it has at
// least one field of its own.
func matchSingleOffer(payload map[string]interface{}) []map[string]interface{} {
	if len(payload) == 0 {
		return nil
	}
	return []map[string]interface{}{payload}
}

// findKey searches the decoded XML depth-first for key.
func findKey(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for _, v := range m {
		switch child := v.(type) {
		case map[string]interface{}:
			if found, ok := findKey(child, key); ok {
				return found, true
			}
		case []interface{}:
			for _, item := range child {
				if cm, ok := item.(map[string]interface{}); ok {
					if found, ok := findKey(cm, key); ok {
						return found, true
					}
				}
			}
		}
	}
	return nil, false
}

func coerceRecords(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]interface{}:
		// A holder like {Flight: [...]} or a single record.
		for _, k := range []string{"Flight", "Flights", "Offer", "Offers", "Voo", "Voos"} {
			if inner, ok := t[k]; ok {
				return coerceRecords(inner)
			}
		}
		if len(t) == 0 {
			return nil
		}
		return []map[string]interface{}{t}
	default:
		return nil
	}
}

// mapSoapOffer converts one generic record into a draft. Field names vary by
// envelope generation, so every lookup tries the known aliases.
func mapSoapOffer(rec map[string]interface{}, q Query) (offers.Draft, bool) {
	dep := recTime(rec, "DepartureTime", "Departure", "departure", "Saida")
	arr := recTime(rec, "ArrivalTime", "Arrival", "arrival", "Chegada")
	if dep.IsZero() {
		dep = q.DepartureDate
	}

	flightNo := recString(rec, "FlightNumber", "flightNumber", "Flight", "NumeroVoo")
	airline := recString(rec, "Airline", "airline", "Carrier", "CiaAerea")

	segs := recSegments(rec)
	if len(segs) == 0 {
		seg := offers.Segment{
			Origin:       q.Origin,
			Destination:  q.Destination,
			Departure:    dep,
			Arrival:      arr,
			Airline:      airline,
			FlightNumber: flightNo,
		}
		if !dep.IsZero() && !arr.IsZero() && arr.After(dep) {
			seg.Duration = offers.FormatDuration(arr.Sub(dep))
		}
		segs = []offers.Segment{seg}
	}

	id := recString(rec, "Id", "ID", "OfferId", "id")
	if id == "" {
		id = flightNo
	}
	if id == "" {
		return offers.Draft{}, false
	}

	return offers.Draft{
		ID:            offers.SourceSabre + "-" + id,
		Amount:        recDecimal(rec, "TotalFare", "Price", "Fare", "Tarifa", "price"),
		Currency:      recString(rec, "Currency", "CurrencyCode", "Moeda"),
		AirlineName:   airline,
		AirlineCode:   recString(rec, "AirlineCode", "CarrierCode", "CodigoCia"),
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureAt:   dep,
		Outbound:      segs,
		BookingSource: recString(rec, "BookingLink", "Link"),
	}, true
}

func recSegments(rec map[string]interface{}) []offers.Segment {
	var raw interface{}
	for _, k := range []string{"Segments", "segments", "Legs", "Trechos"} {
		if v, ok := rec[k]; ok {
			raw = v
			break
		}
	}
	if raw == nil {
		return nil
	}
	out := make([]offers.Segment, 0, 2)
	for _, sm := range coerceRecords(raw) {
		out = append(out, offers.Segment{
			Origin:       recString(sm, "Origin", "From", "Origem"),
			Destination:  recString(sm, "Destination", "To", "Destino"),
			Departure:    recTime(sm, "DepartureTime", "Departure", "Saida"),
			Arrival:      recTime(sm, "ArrivalTime", "Arrival", "Chegada"),
			Airline:      recString(sm, "Airline", "Carrier", "CiaAerea"),
			FlightNumber: recString(sm, "FlightNumber", "Flight", "NumeroVoo"),
		})
	}
	return out
}

func recString(rec map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case float64, int, int64, bool:
				return fmt.Sprintf("%v", t)
			}
		}
	}
	return ""
}

func recDecimal(rec map[string]interface{}, keys ...string) decimal.Decimal {
	s := recString(rec, keys...)
	if s == "" {
		return decimal.Zero
	}
	// Legacy payloads use the Brazilian decimal comma.
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var soapTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
}

func recTime(rec map[string]interface{}, keys ...string) time.Time {
	s := recString(rec, keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range soapTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
