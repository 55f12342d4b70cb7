package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/clbanning/mxj/v2"
	"github.com/rs/zerolog"
	"github.com/tiaguinho/gosoap"

	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/config"
	"github.com/MatheusAyzava/gwindapp-passagens-backend/internal/offers"
)

// One budget covers WSDL fetch, client construction and the remote call.
const sabreCallTimeout = 30 * time.Second

// Sabre wraps the legacy SOAP webservice. The provider is flaky and its
// response envelope drifts between versions, so every failure here collapses
// to an empty result: this source must never abort an aggregate search.
type Sabre struct {
	wsdl   string
	client *http.Client
	log    zerolog.Logger
}

func NewSabre(cfg *config.Config, log zerolog.Logger) *Sabre {
	return &Sabre{
		wsdl:   cfg.SabreWSDL,
		client: &http.Client{Timeout: sabreCallTimeout},
		log:    log.With().Str("provider", offers.SourceSabre).Logger(),
	}
}

func (s *Sabre) Name() string { return offers.SourceSabre }

func (s *Sabre) Search(ctx context.Context, q Query) ([]offers.Draft, error) {
	body, ok := s.callAvailability(ctx, q)
	if !ok {
		return nil, nil
	}

	payload, err := mxj.NewMapXml(body)
	if err != nil {
		s.log.Warn().Err(err).Msg("unparseable availability response")
		return nil, nil
	}

	records := extractOfferRecords(map[string]interface{}(payload))
	drafts := make([]offers.Draft, 0, len(records))
	for _, rec := range records {
		d, ok := mapSoapOffer(rec, q)
		if !ok {
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// callAvailability builds a fresh client from the WSDL and invokes the
// availability operation. No connection state survives between calls.
func (s *Sabre) callAvailability(ctx context.Context, q Query) ([]byte, bool) {
	type result struct {
		body []byte
		ok   bool
	}
	done := make(chan result, 1)

	go func() {
		soap, err := gosoap.SoapClient(s.wsdl, s.client)
		if err != nil {
			// Distinct from a remote fault: the WSDL itself is unusable.
			s.log.Error().Err(err).Msg("soap client construction failed")
			done <- result{nil, false}
			return
		}

		params := gosoap.Params{
			"Origin":        q.Origin,
			"Destination":   q.Destination,
			"DepartureDate": q.DepartureDate.Format(dateLayout),
			"Adults":        "1",
			"Children":      "0",
		}
		if q.ReturnDate != nil {
			params["ReturnDate"] = q.ReturnDate.Format(dateLayout)
		}

		res, err := soap.Call("GetAvailability", params)
		if err != nil {
			s.log.Warn().Err(err).Msg("availability call failed")
			done <- result{nil, false}
			return
		}
		done <- result{res.Body, true}
	}()

	select {
	case r := <-done:
		return r.body, r.ok
	case <-ctx.Done():
		s.log.Warn().Err(ctx.Err()).Msg("availability call abandoned")
		return nil, false
	case <-time.After(sabreCallTimeout):
		s.log.Warn().Msg("availability call timed out")
		return nil, false
	}
}
