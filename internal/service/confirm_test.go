package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
)

func confirmableOffer(id, source string) offers.Offer {
	return offers.Offer{
		ID:             id,
		Price:          offers.Price{Amount: decimal.NewFromInt(800), Currency: "BRL"},
		SourceProvider: source,
		RawPayload:     json.RawMessage(`{"id":"` + id + `"}`),
	}
}

func TestConfirmRoutesToOriginatingProvider(t *testing.T) {
	want := offers.ConfirmedPrice{
		Total:         decimal.NewFromInt(850),
		Base:          decimal.NewFromInt(700),
		Currency:      "BRL",
		BookableSeats: 3,
	}
	svc := NewConfirmationService([]providers.PriceConfirmer{
		confirmerMock{name: "amadeus", price: want},
	}, zerolog.Nop())

	got, err := svc.Confirm(context.Background(), confirmableOffer("o1", "amadeus"))
	require.NoError(t, err)
	require.True(t, want.Total.Equal(got.Total))
	require.Equal(t, 3, got.BookableSeats)
}

func TestConfirmRejectsMissingRawPayload(t *testing.T) {
	svc := NewConfirmationService(nil, zerolog.Nop())
	o := confirmableOffer("o1", "amadeus")
	o.RawPayload = nil

	_, err := svc.Confirm(context.Background(), o)
	require.Error(t, err)
	require.True(t, providers.IsKind(err, providers.KindValidation))
}

func TestConfirmRejectsUnsupportedSource(t *testing.T) {
	svc := NewConfirmationService(nil, zerolog.Nop())
	_, err := svc.Confirm(context.Background(), confirmableOffer("o1", "aviationstack"))
	require.Error(t, err)
	require.True(t, providers.IsKind(err, providers.KindValidation))
}

func TestConfirmBatchCapsAtFive(t *testing.T) {
	var calls int32
	svc := NewConfirmationService([]providers.PriceConfirmer{
		confirmerMock{name: "amadeus", callCount: &calls, price: offers.ConfirmedPrice{
			Total: decimal.NewFromInt(900), Currency: "BRL",
		}},
	}, zerolog.Nop())

	batch := make([]offers.Offer, 7)
	for i := range batch {
		batch[i] = confirmableOffer(string(rune('a'+i)), "amadeus")
	}

	confirmed := svc.ConfirmBatch(context.Background(), batch)
	require.Len(t, confirmed, 5)
	require.Equal(t, int32(5), atomic.LoadInt32(&calls), "offers beyond the cap must not hit the network")
}

func TestConfirmBatchOmitsFailures(t *testing.T) {
	svc := NewConfirmationService([]providers.PriceConfirmer{
		confirmerMock{name: "amadeus", price: offers.ConfirmedPrice{
			Total: decimal.NewFromInt(900), Currency: "BRL",
		}},
	}, zerolog.Nop())

	batch := []offers.Offer{
		confirmableOffer("ok", "amadeus"),
		confirmableOffer("unsupported", "sabre"),
	}
	confirmed := svc.ConfirmBatch(context.Background(), batch)
	require.Len(t, confirmed, 1)
	require.Equal(t, "ok", confirmed[0].Offer.ID)
	require.True(t, confirmed[0].OriginalPrice.Amount.Equal(decimal.NewFromInt(800)))
	require.True(t, confirmed[0].ConfirmedPrice.Total.Equal(decimal.NewFromInt(900)))
}
