package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
)

// SourceError is one provider failure recorded in the search stats.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Stats summarizes one aggregate search. Total counts the offers that
// survived dedup, while PerSource counts each provider's normalized offers
// before dedup, so Total may be lower than the PerSource sum. Synthetic
// fallback offers are excluded from both.
type Stats struct {
	Total     int            `json:"total"`
	PerSource map[string]int `json:"per_source"`
	Errors    []SourceError  `json:"errors"`
	Fallback  bool           `json:"fallback"`
}

type SearchResult struct {
	Offers []offers.Offer `json:"offers"`
	Stats  Stats          `json:"stats"`
}

type cacheEntry struct {
	value     SearchResult
	expiresAt time.Time
}

// SearchService fans one availability search out to every enabled provider,
// joins the outcomes tolerating partial failure, and returns a deduplicated,
// reliability-ranked offer list.
type SearchService struct {
	adapters        []providers.Adapter
	carriers        map[string]string
	defaultCurrency string
	fallback        bool
	mock            *MockGenerator
	cache           map[string]cacheEntry
	mu              sync.RWMutex
	cacheTTL        time.Duration
	log             zerolog.Logger
}

func NewSearchService(adapters []providers.Adapter, carriers map[string]string,
	defaultCurrency string, fallback bool, cacheTTL time.Duration, log zerolog.Logger) *SearchService {
	return &SearchService{
		adapters:        adapters,
		carriers:        carriers,
		defaultCurrency: defaultCurrency,
		fallback:        fallback,
		mock:            NewMockGenerator(defaultCurrency),
		cache:           make(map[string]cacheEntry),
		cacheTTL:        cacheTTL,
		log:             log.With().Str("component", "search").Logger(),
	}
}

// outcome is one provider's terminal result: drafts or an error, never both
// propagated. A failing provider contributes an error record and nothing
// else; it cannot cancel or delay its siblings beyond its own timeout.
type outcome struct {
	source string
	drafts []offers.Draft
	err    error
}

// Search accepts free-text locations, resolves them to codes once, and runs
// the full pipeline: fan-out, normalize, score, dedupe, sort, fallback.
func (s *SearchService) Search(ctx context.Context, origin, destination string,
	departureDate time.Time, returnDate *time.Time) (SearchResult, error) {

	q := providers.Query{
		Origin:        offers.ResolveCityCode(origin),
		Destination:   offers.ResolveCityCode(destination),
		DepartureDate: departureDate,
		ReturnDate:    returnDate,
	}

	key := s.cacheKey(q)
	if res, ok := s.cached(key); ok {
		return res, nil
	}

	outcomes := make([]outcome, len(s.adapters))
	g := new(errgroup.Group)
	for i, ad := range s.adapters {
		i, ad := i, ad
		g.Go(func() error {
			drafts, err := ad.Search(ctx, q)
			outcomes[i] = outcome{source: ad.Name(), drafts: drafts, err: err}
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors; each outcome sits in its slot

	var (
		merged    []offers.Offer
		errs      []SourceError
		perSource = make(map[string]int)
		lastErr   error
	)
	for _, oc := range outcomes {
		perSource[oc.source] = 0
	}
	for _, oc := range outcomes {
		if oc.err != nil {
			s.log.Warn().Str("source", oc.source).Err(oc.err).Msg("provider search failed")
			errs = append(errs, SourceError{Source: oc.source, Message: oc.err.Error()})
			lastErr = oc.err
			continue
		}
		for _, d := range oc.drafts {
			o, err := offers.Normalize(d, oc.source, s.carriers, s.defaultCurrency)
			if err != nil {
				s.log.Debug().Str("source", oc.source).Err(err).Msg("dropping invalid offer")
				continue
			}
			o.Reliability = offers.Score(o)
			merged = append(merged, o)
			perSource[oc.source]++
		}
	}

	deduped := offers.Dedupe(merged)
	sortOffers(deduped)

	result := SearchResult{
		Offers: deduped,
		Stats: Stats{
			Total:     len(deduped),
			PerSource: perSource,
			Errors:    errs,
		},
	}

	if len(deduped) == 0 {
		if s.fallback {
			s.log.Info().Str("route", q.Origin+"-"+q.Destination).Msg("no provider offers, using synthetic fallback")
			result.Offers = s.mock.Generate(q)
			result.Stats.Fallback = true
			return result, nil
		}
		if lastErr != nil {
			return SearchResult{}, asProviderError(lastErr)
		}
		// Every provider answered and none had a match: a legitimate empty
		// result, not an error.
	}

	if len(result.Offers) > 0 && s.cacheTTL > 0 {
		s.store(key, result)
	}
	return result, nil
}

// asProviderError guarantees the total-failure error surfaced to the caller
// is a typed provider error.
func asProviderError(err error) error {
	var pe *providers.Error
	if errors.As(err, &pe) {
		return err
	}
	return &providers.Error{Kind: providers.KindUnavailable, Provider: "aggregate", Message: err.Error()}
}

// sortOffers ranks by reliability, then price ascending within ties.
func sortOffers(list []offers.Offer) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Reliability != list[j].Reliability {
			return list[i].Reliability > list[j].Reliability
		}
		return list[i].Price.Amount.LessThan(list[j].Price.Amount)
	})
}

func (s *SearchService) cacheKey(q providers.Query) string {
	key := q.Origin + "|" + q.Destination + "|" + q.DepartureDate.Format("2006-01-02")
	if q.ReturnDate != nil {
		key += "|" + q.ReturnDate.Format("2006-01-02")
	}
	return key
}

func (s *SearchService) cached(key string) (SearchResult, bool) {
	if s.cacheTTL <= 0 {
		return SearchResult{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ce, ok := s.cache[key]
	if !ok || time.Now().After(ce.expiresAt) {
		return SearchResult{}, false
	}
	return ce.value, true
}

func (s *SearchService) store(key string, res SearchResult) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{value: res, expiresAt: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()
}
