package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/config"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/providers"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/service"
)

func main() {
	origin := flag.String("origin", "", "origin city or 3-letter code")
	destination := flag.String("destination", "", "destination city or 3-letter code")
	departure := flag.String("date", "", "departure date YYYY-MM-DD")
	returnDate := flag.String("return", "", "optional return date YYYY-MM-DD")
	confirm := flag.Bool("confirm", false, "reconfirm prices of the top offers")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *origin == "" || *destination == "" || *departure == "" {
		log.Fatal().Msg("origin, destination and date are required")
	}
	depDate, err := time.Parse("2006-01-02", *departure)
	if err != nil {
		log.Fatal().Err(err).Msg("bad departure date")
	}
	var retDate *time.Time
	if *returnDate != "" {
		d, err := time.Parse("2006-01-02", *returnDate)
		if err != nil {
			log.Fatal().Err(err).Msg("bad return date")
		}
		retDate = &d
	}

	// One token cache for the process; the OAuth adapter owns no global state.
	tokens := providers.NewTokenCache()
	amadeus := providers.NewAmadeus(cfg, tokens, log)

	type tier struct {
		adapter  providers.Adapter
		priority int
	}
	var tiers []tier
	if cfg.AmadeusEnabled {
		tiers = append(tiers, tier{amadeus, cfg.AmadeusPriority})
	}
	if cfg.SabreEnabled {
		tiers = append(tiers, tier{providers.NewSabre(cfg, log), cfg.SabrePriority})
	}
	if cfg.AviationstackEnabled {
		tiers = append(tiers, tier{providers.NewAviationstack(cfg, log), cfg.AviationstackPriority})
	}
	if len(tiers) == 0 {
		log.Fatal().Msg("no providers enabled, check configuration")
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].priority < tiers[j].priority })
	adapters := make([]providers.Adapter, 0, len(tiers))
	for _, t := range tiers {
		adapters = append(adapters, t.adapter)
	}

	searchSvc := service.NewSearchService(adapters, cfg.Carriers, cfg.DefaultCurrency,
		cfg.MockFallback, cfg.SearchCacheTTL, log)
	confirmSvc := service.NewConfirmationService([]providers.PriceConfirmer{amadeus}, log)

	ctx := context.Background()
	res, err := searchSvc.Search(ctx, *origin, *destination, depDate, retDate)
	if err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if !*confirm {
		_ = enc.Encode(res)
		return
	}

	confirmed := confirmSvc.ConfirmBatch(ctx, res.Offers)
	_ = enc.Encode(struct {
		Search    service.SearchResult    `json:"search"`
		Confirmed []offers.ConfirmedOffer `json:"confirmed"`
	}{res, confirmed})
}
