package offers

import "github.com/shopspring/decimal"

// Source trust weights. The legacy webservice is the airline's own inventory,
// so it ranks above the aggregated REST feed; the validation-only feed ranks
// last because it carries no fare data.
var sourceWeights = map[string]float64{
	SourceSabre:         0.4,
	SourceAmadeus:       0.3,
	SourceAviationstack: 0.2,
}

// Score assigns a confidence score in [0,1] from the offer's source and data
// completeness: 0.5 base + source weight, +0.1 for segment detail, +0.1 for
// a real price.
func Score(o Offer) float64 {
	s := 0.5 + sourceWeights[o.SourceProvider]
	if len(o.Segments.Outbound) > 0 {
		s += 0.1
	}
	if o.Price.Amount.GreaterThan(decimal.Zero) {
		s += 0.1
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
