package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
)

// Query is one resolved availability search: location codes, not free text.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
}

// Adapter wraps one external provider's protocol. Search returns
// provider-shaped drafts; normalization and scoring happen in the
// orchestrator so every source goes through the same pipeline.
type Adapter interface {
	Name() string
	Search(ctx context.Context, q Query) ([]offers.Draft, error)
}

// PriceConfirmer re-prices a previously returned offer from its retained raw
// payload. Only sources with authoritative fares implement it.
type PriceConfirmer interface {
	Name() string
	ConfirmPrice(ctx context.Context, raw json.RawMessage) (offers.ConfirmedPrice, error)
}

const dateLayout = "2006-01-02"
