package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/config"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
)

const (
	amadeusTokenTimeout   = 10 * time.Second
	amadeusSearchTimeout  = 15 * time.Second
	amadeusPricingTimeout = 20 * time.Second
	amadeusMaxOffers      = 15
)

// Amadeus is the OAuth-secured REST provider. It is the only source with
// authoritative fares, so it also implements PriceConfirmer.
type Amadeus struct {
	host        string
	authPath    string
	searchPath  string
	pricingPath string
	id          string
	secret      string
	client      *http.Client
	tokens      *TokenCache
	log         zerolog.Logger
}

func NewAmadeus(cfg *config.Config, tokens *TokenCache, log zerolog.Logger) *Amadeus {
	return &Amadeus{
		host:        cfg.AmadeusHost,
		authPath:    "/v1/security/oauth2/token",
		searchPath:  "/v2/shopping/flight-offers",
		pricingPath: "/v1/shopping/flight-offers/pricing",
		id:          cfg.AmadeusClientID,
		secret:      cfg.AmadeusClientSecret,
		client:      http.DefaultClient,
		tokens:      tokens,
		log:         log.With().Str("provider", offers.SourceAmadeus).Logger(),
	}
}

func (a *Amadeus) Name() string { return offers.SourceAmadeus }

// token returns a cached bearer token, refreshing via the client-credentials
// grant when it is within a minute of expiry. Concurrent refreshes are
// tolerated; see TokenCache.
func (a *Amadeus) token(ctx context.Context) (string, error) {
	if tok, ok := a.tokens.Get(time.Now()); ok {
		return tok, nil
	}

	ctx, cancel := context.WithTimeout(ctx, amadeusTokenTimeout)
	defer cancel()

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", a.id)
	data.Set("client_secret", a.secret)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, a.host+a.authPath, strings.NewReader(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fromTransport(a.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fromStatus(a.Name(), resp.StatusCode, readErrorDetail(resp.Body))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &Error{Kind: KindUnavailable, Provider: a.Name(), Message: "bad token response", cause: err}
	}

	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	a.tokens.Put(tr.AccessToken, expiresAt)
	a.log.Debug().Time("expires_at", expiresAt).Msg("refreshed access token")
	return tr.AccessToken, nil
}

type amadeusSegment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
	Duration    string `json:"duration"` // ISO8601 e.g. PT2H10M
}

type amadeusOffer struct {
	ID    string `json:"id"`
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string           `json:"duration"`
		Segments []amadeusSegment `json:"segments"`
	} `json:"itineraries"`
}

func (a *Amadeus) Search(ctx context.Context, q Query) ([]offers.Draft, error) {
	if a.id == "" || a.secret == "" {
		return nil, newError(KindAuthentication, a.Name(), "client credentials missing, check configuration")
	}
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, amadeusSearchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate.Format(dateLayout))
	if q.ReturnDate != nil {
		params.Set("returnDate", q.ReturnDate.Format(dateLayout))
	}
	params.Set("adults", "1")
	params.Set("max", strconv.Itoa(amadeusMaxOffers))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, a.host+a.searchPath+"?"+params.Encode(), nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fromTransport(a.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fromStatus(a.Name(), resp.StatusCode, readErrorDetail(resp.Body))
	}

	// Keep every offer's raw JSON; the pricing call needs it back verbatim.
	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: a.Name(), Message: "bad search response", cause: err}
	}

	var out []offers.Draft
	for _, raw := range payload.Data {
		var o amadeusOffer
		if err := json.Unmarshal(raw, &o); err != nil {
			a.log.Warn().Err(err).Msg("skipping undecodable offer")
			continue
		}
		d, ok := a.mapOffer(o, raw, q)
		if !ok {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (a *Amadeus) mapOffer(o amadeusOffer, raw json.RawMessage, q Query) (offers.Draft, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return offers.Draft{}, false
	}

	price, err := decimal.NewFromString(o.Price.Total)
	if err != nil {
		price = decimal.Zero
	}

	outbound := mapAmadeusSegments(o.Itineraries[0].Segments)
	first := o.Itineraries[0].Segments[0]

	d := offers.Draft{
		ID:            offers.SourceAmadeus + "-" + o.ID,
		Amount:        price,
		Currency:      o.Price.Currency,
		AirlineCode:   first.CarrierCode,
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureAt:   parseAmadeusTime(first.Departure.At),
		OutboundDur:   formatISODuration(o.Itineraries[0].Duration),
		Outbound:      outbound,
		BookingSource: a.host,
		RawPayload:    raw,
	}

	if len(o.Itineraries) > 1 && len(o.Itineraries[1].Segments) > 0 {
		d.Return = mapAmadeusSegments(o.Itineraries[1].Segments)
		ret := d.Return[0].Departure
		d.ReturnAt = &ret
		d.ReturnDur = formatISODuration(o.Itineraries[1].Duration)
	}
	return d, true
}

func mapAmadeusSegments(in []amadeusSegment) []offers.Segment {
	out := make([]offers.Segment, 0, len(in))
	for _, s := range in {
		out = append(out, offers.Segment{
			Origin:       s.Departure.IataCode,
			Destination:  s.Arrival.IataCode,
			Departure:    parseAmadeusTime(s.Departure.At),
			Arrival:      parseAmadeusTime(s.Arrival.At),
			Duration:     formatISODuration(s.Duration),
			Airline:      s.CarrierCode,
			FlightNumber: s.CarrierCode + s.Number,
		})
	}
	return out
}

// ConfirmPrice re-issues the offer's raw payload against the pricing endpoint
// and returns the up-to-date fare with its breakdown.
func (a *Amadeus) ConfirmPrice(ctx context.Context, raw json.RawMessage) (offers.ConfirmedPrice, error) {
	if len(raw) == 0 {
		return offers.ConfirmedPrice{}, newError(KindValidation, a.Name(), "offer has no raw payload to confirm")
	}
	tok, err := a.token(ctx)
	if err != nil {
		return offers.ConfirmedPrice{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, amadeusPricingTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []json.RawMessage{raw},
		},
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, a.host+a.pricingPath, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return offers.ConfirmedPrice{}, fromTransport(a.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return offers.ConfirmedPrice{}, fromStatus(a.Name(), resp.StatusCode, readErrorDetail(resp.Body))
	}

	var payload struct {
		Data struct {
			FlightOffers []struct {
				Price struct {
					GrandTotal string `json:"grandTotal"`
					Base       string `json:"base"`
					Currency   string `json:"currency"`
					Fees       []struct {
						Amount string `json:"amount"`
						Type   string `json:"type"`
					} `json:"fees"`
				} `json:"price"`
				LastTicketingDate        string `json:"lastTicketingDate"`
				NumberOfBookableSeats    int    `json:"numberOfBookableSeats"`
				InstantTicketingRequired bool   `json:"instantTicketingRequired"`
			} `json:"flightOffers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return offers.ConfirmedPrice{}, &Error{Kind: KindUnavailable, Provider: a.Name(), Message: "bad pricing response", cause: err}
	}
	if len(payload.Data.FlightOffers) == 0 {
		return offers.ConfirmedPrice{}, newError(KindNotFound, a.Name(), "pricing returned no offers, the offer may have expired")
	}

	fo := payload.Data.FlightOffers[0]
	cp := offers.ConfirmedPrice{
		Total:                    mustDecimal(fo.Price.GrandTotal),
		Base:                     mustDecimal(fo.Price.Base),
		Currency:                 fo.Price.Currency,
		LastTicketingDate:        fo.LastTicketingDate,
		BookableSeats:            fo.NumberOfBookableSeats,
		InstantTicketingRequired: fo.InstantTicketingRequired,
	}
	for _, f := range fo.Price.Fees {
		cp.Fees = append(cp.Fees, offers.Fee{Type: f.Type, Amount: mustDecimal(f.Amount)})
	}
	return cp, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// readErrorDetail extracts the provider's error description, tolerating both
// {"errors":[{"detail":...}]} and {"error_description":...} shapes.
func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var e struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &e) == nil {
		if len(e.Errors) > 0 && e.Errors[0].Detail != "" {
			return e.Errors[0].Detail
		}
		if e.ErrorDescription != "" {
			return e.ErrorDescription
		}
	}
	return strings.TrimSpace(string(body))
}

// formatISODuration renders PT2H10M as "2h 10m". Empty input stays empty so
// normalization can derive the span from segment timestamps instead.
func formatISODuration(s string) string {
	if s == "" {
		return ""
	}
	return offers.FormatDuration(time.Duration(parseISODurationMinutes(s)) * time.Minute)
}

func parseISODurationMinutes(s string) int {
	// very small parser for formats like PT2H10M, PT150M
	s = strings.TrimPrefix(s, "PT")
	total := 0
	var num strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num.WriteRune(r)
			continue
		}
		v, _ := strconv.Atoi(num.String())
		num.Reset()
		switch r {
		case 'H':
			total += v * 60
		case 'M':
			total += v
		}
	}
	return total
}

func parseAmadeusTime(s string) time.Time {
	// Amadeus returns local time without offset, e.g. 2025-09-10T08:45:00.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
