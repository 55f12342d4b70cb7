package offers

type dedupeKey struct {
	origin      string
	destination string
	date        string
	airline     string
}

// Dedupe collapses offers that describe the same itinerary across providers:
// same route, same departure day, same airline. On a collision the offer with
// the strictly higher reliability survives; at equal reliability the one with
// more outbound segment detail wins.
func Dedupe(list []Offer) []Offer {
	out := make([]Offer, 0, len(list))
	index := make(map[dedupeKey]int, len(list))

	for _, o := range list {
		key := dedupeKey{
			origin:      o.Origin,
			destination: o.Destination,
			date:        o.DepartureAt.Format("2006-01-02"),
			airline:     o.Airline,
		}
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, o)
			continue
		}
		kept := out[at]
		if o.Reliability > kept.Reliability ||
			(o.Reliability == kept.Reliability && len(o.Segments.Outbound) > len(kept.Segments.Outbound)) {
			out[at] = o
		}
	}
	return out
}
