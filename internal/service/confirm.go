package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
)

// Batch size is capped to bound fan-out against provider rate limits.
// Callers needing more issue additional batches sequentially.
const maxConfirmBatch = 5

// ConfirmationService re-prices previously returned offers against the
// provider that originated them.
type ConfirmationService struct {
	confirmers map[string]providers.PriceConfirmer
	log        zerolog.Logger
}

func NewConfirmationService(confirmers []providers.PriceConfirmer, log zerolog.Logger) *ConfirmationService {
	byName := make(map[string]providers.PriceConfirmer, len(confirmers))
	for _, c := range confirmers {
		byName[c.Name()] = c
	}
	return &ConfirmationService{
		confirmers: byName,
		log:        log.With().Str("component", "confirm").Logger(),
	}
}

// Confirm fetches an up-to-date price for one offer. Failures surface as
// typed provider errors.
func (s *ConfirmationService) Confirm(ctx context.Context, offer offers.Offer) (offers.ConfirmedPrice, error) {
	if len(offer.RawPayload) == 0 {
		return offers.ConfirmedPrice{}, &providers.Error{
			Kind:     providers.KindValidation,
			Provider: offer.SourceProvider,
			Message:  "offer carries no raw payload, cannot confirm price",
		}
	}
	c, ok := s.confirmers[offer.SourceProvider]
	if !ok {
		return offers.ConfirmedPrice{}, &providers.Error{
			Kind:     providers.KindValidation,
			Provider: offer.SourceProvider,
			Message:  "source does not support price confirmation",
		}
	}
	return c.ConfirmPrice(ctx, offer.RawPayload)
}

// ConfirmBatch confirms at most the first maxConfirmBatch offers
// concurrently and returns only the subset that succeeded. Individual
// failures are logged and omitted; the batch itself never fails.
func (s *ConfirmationService) ConfirmBatch(ctx context.Context, list []offers.Offer) []offers.ConfirmedOffer {
	if len(list) > maxConfirmBatch {
		list = list[:maxConfirmBatch]
	}

	type slot struct {
		price offers.ConfirmedPrice
		err   error
	}
	slots := make([]slot, len(list))

	g := new(errgroup.Group)
	for i, o := range list {
		i, o := i, o
		g.Go(func() error {
			price, err := s.Confirm(ctx, o)
			slots[i] = slot{price: price, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]offers.ConfirmedOffer, 0, len(list))
	for i, sl := range slots {
		if sl.err != nil {
			s.log.Warn().Str("offer", list[i].ID).Err(sl.err).Msg("price confirmation failed")
			continue
		}
		out = append(out, offers.ConfirmedOffer{
			Offer:          list[i],
			OriginalPrice:  list[i].Price,
			ConfirmedPrice: sl.price,
		})
	}
	return out
}
