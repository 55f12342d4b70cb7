package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/config"
)

const amadeusSearchBody = `{
  "data": [
    {
      "id": "1",
      "price": {"total": "812.40", "currency": "BRL"},
      "itineraries": [
        {
          "duration": "PT1H5M",
          "segments": [
            {
              "departure": {"iataCode": "GRU", "at": "2025-12-25T08:00:00"},
              "arrival": {"iataCode": "SDU", "at": "2025-12-25T09:05:00"},
              "carrierCode": "LA",
              "number": "3340",
              "duration": "PT1H5M"
            }
          ]
        }
      ]
    },
    {
      "id": "2",
      "price": {"total": "655.00", "currency": "BRL"},
      "itineraries": [{"duration": "PT2H", "segments": []}]
    }
  ]
}`

func newAmadeusServer(t *testing.T, search http.HandlerFunc) (*Amadeus, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1799})
	})
	mux.HandleFunc("/v2/shopping/flight-offers", search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{AmadeusHost: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"}
	return NewAmadeus(cfg, NewTokenCache(), zerolog.Nop()), srv
}

func testQuery() Query {
	return Query{
		Origin:        "GRU",
		Destination:   "SDU",
		DepartureDate: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
	}
}

func TestAmadeusSearch(t *testing.T) {
	a, _ := newAmadeusServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "GRU", r.URL.Query().Get("originLocationCode"))
		require.Equal(t, "15", r.URL.Query().Get("max"))
		_, _ = w.Write([]byte(amadeusSearchBody))
	})

	drafts, err := a.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, drafts, 1, "offer without segments is skipped")

	d := drafts[0]
	require.Equal(t, "amadeus-1", d.ID)
	require.True(t, d.Amount.Equal(decimal.RequireFromString("812.40")))
	require.Equal(t, "BRL", d.Currency)
	require.Equal(t, "LA", d.AirlineCode)
	require.Equal(t, "1h 5m", d.OutboundDur)
	require.Len(t, d.Outbound, 1)
	require.Equal(t, "LA3340", d.Outbound[0].FlightNumber)
	require.NotEmpty(t, d.RawPayload, "raw offer retained for pricing")
}

func TestAmadeusSearchReusesToken(t *testing.T) {
	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1799})
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{AmadeusHost: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"}
	a := NewAmadeus(cfg, NewTokenCache(), zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := a.Search(context.Background(), testQuery())
		require.NoError(t, err)
	}
	require.Equal(t, 1, tokenCalls)
}

func TestAmadeusMissingCredentials(t *testing.T) {
	a := NewAmadeus(&config.Config{AmadeusHost: "http://unused"}, NewTokenCache(), zerolog.Nop())
	_, err := a.Search(context.Background(), testQuery())
	require.True(t, IsKind(err, KindAuthentication))
}

func TestAmadeusTokenRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_description":"invalid client"}`, http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{AmadeusHost: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "bad"}
	a := NewAmadeus(cfg, NewTokenCache(), zerolog.Nop())

	_, err := a.Search(context.Background(), testQuery())
	require.True(t, IsKind(err, KindAuthentication))
}

func TestAmadeusSearchErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadGateway, KindUnavailable},
	}
	for _, tc := range cases {
		a, _ := newAmadeusServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"errors":[{"detail":"bad stuff"}]}`, tc.status)
		})
		_, err := a.Search(context.Background(), testQuery())
		require.True(t, IsKind(err, tc.kind), "status %d should map to %s, got %v", tc.status, tc.kind, err)
	}
}

func TestAmadeusConfirmPrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1799})
	})
	mux.HandleFunc("/v1/shopping/flight-offers/pricing", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data struct {
				FlightOffers []json.RawMessage `json:"flightOffers"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data.FlightOffers, 1, "raw payload echoed back to the provider")

		_, _ = w.Write([]byte(`{
			"data": {"flightOffers": [{
				"price": {
					"grandTotal": "845.90",
					"base": "700.00",
					"currency": "BRL",
					"fees": [{"amount": "45.90", "type": "SUPPLIER"}]
				},
				"lastTicketingDate": "2025-12-20",
				"numberOfBookableSeats": 4,
				"instantTicketingRequired": true
			}]}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{AmadeusHost: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"}
	a := NewAmadeus(cfg, NewTokenCache(), zerolog.Nop())

	cp, err := a.ConfirmPrice(context.Background(), json.RawMessage(`{"id":"1"}`))
	require.NoError(t, err)
	require.True(t, cp.Total.Equal(decimal.RequireFromString("845.90")))
	require.True(t, cp.Base.Equal(decimal.RequireFromString("700.00")))
	require.Equal(t, "BRL", cp.Currency)
	require.Len(t, cp.Fees, 1)
	require.Equal(t, "SUPPLIER", cp.Fees[0].Type)
	require.Equal(t, "2025-12-20", cp.LastTicketingDate)
	require.Equal(t, 4, cp.BookableSeats)
	require.True(t, cp.InstantTicketingRequired)
}

func TestAmadeusConfirmPriceExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1799})
	})
	mux.HandleFunc("/v1/shopping/flight-offers/pricing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"offer expired"}]}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{AmadeusHost: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"}
	a := NewAmadeus(cfg, NewTokenCache(), zerolog.Nop())

	_, err := a.ConfirmPrice(context.Background(), json.RawMessage(`{"id":"gone"}`))
	require.True(t, IsKind(err, KindNotFound))
}
