package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
)

// adapterMock is the test double for a provider adapter.
type adapterMock struct {
	name            string
	drafts          []offers.Draft
	delay           time.Duration
	errorOutMessage *string
	errorOut        error
	callCount       *int32
}

func (p adapterMock) Name() string { return p.name }

func (p adapterMock) Search(ctx context.Context, q providers.Query) ([]offers.Draft, error) {
	if p.callCount != nil {
		atomic.AddInt32(p.callCount, 1)
	}
	if p.errorOut != nil {
		return nil, p.errorOut
	}
	if p.errorOutMessage != nil {
		return nil, errors.New(p.name + ": " + *p.errorOutMessage)
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.drafts, nil
}

// confirmerMock counts calls and answers with a fixed price.
type confirmerMock struct {
	name      string
	price     offers.ConfirmedPrice
	err       error
	callCount *int32
}

func (c confirmerMock) Name() string { return c.name }

func (c confirmerMock) ConfirmPrice(ctx context.Context, raw json.RawMessage) (offers.ConfirmedPrice, error) {
	if c.callCount != nil {
		atomic.AddInt32(c.callCount, 1)
	}
	if c.err != nil {
		return offers.ConfirmedPrice{}, c.err
	}
	return c.price, nil
}

// draftFor builds a minimal valid draft in tests.
func draftFor(id, origin, destination, airline string, price float64, dep time.Time) offers.Draft {
	return offers.Draft{
		ID:          id,
		Amount:      decimal.NewFromFloat(price),
		AirlineName: airline,
		Origin:      origin,
		Destination: destination,
		DepartureAt: dep,
		Outbound: []offers.Segment{{
			Origin:      origin,
			Destination: destination,
			Departure:   dep,
			Arrival:     dep.Add(time.Hour),
			Airline:     airline,
		}},
	}
}

func valToPtr[T any](param T) *T {
	return &param
}
