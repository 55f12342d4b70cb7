package offers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var carriers = map[string]string{"LA": "LATAM Airlines", "G3": "Gol Linhas Aéreas"}

func segment(origin, dest string, dep time.Time, dur time.Duration) Segment {
	return Segment{
		Origin:      origin,
		Destination: dest,
		Departure:   dep,
		Arrival:     dep.Add(dur),
	}
}

func TestNormalizeDefaults(t *testing.T) {
	dep := time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC)
	d := Draft{
		ID:          "x-1",
		AirlineCode: "la",
		Origin:      "gru",
		Destination: "sdu",
		Outbound:    []Segment{segment("GRU", "SDU", dep, time.Hour)},
	}

	o, err := Normalize(d, SourceAmadeus, carriers, "BRL")
	require.NoError(t, err)
	require.Equal(t, "BRL", o.Price.Currency, "missing currency gets the default")
	require.Equal(t, "LATAM Airlines", o.Airline, "carrier code resolved through the table")
	require.Equal(t, "GRU", o.Origin)
	require.Equal(t, "SDU", o.Destination)
	require.Equal(t, dep, o.DepartureAt, "departure derived from first segment")
	require.Equal(t, 0, o.OutboundStops)
	require.Equal(t, "1h 0m", o.OutboundDuration, "duration derived from segment span")
	require.Equal(t, SourceAmadeus, o.SourceProvider)
	require.Nil(t, o.ReturnAt)
}

func TestNormalizeUnknownCarrierKeepsCode(t *testing.T) {
	dep := time.Now()
	d := Draft{
		ID:          "x-2",
		AirlineCode: "zz",
		Outbound:    []Segment{segment("GRU", "SDU", dep, time.Hour)},
	}
	o, err := Normalize(d, SourceAmadeus, carriers, "BRL")
	require.NoError(t, err)
	require.Equal(t, "ZZ", o.Airline)
}

func TestNormalizeStopsFromSegmentCount(t *testing.T) {
	dep := time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC)
	d := Draft{
		ID: "x-3",
		Outbound: []Segment{
			segment("GRU", "CNF", dep, time.Hour),
			segment("CNF", "SDU", dep.Add(90*time.Minute), time.Hour),
		},
	}
	o, err := Normalize(d, SourceSabre, carriers, "BRL")
	require.NoError(t, err)
	require.Equal(t, 1, o.OutboundStops)
	require.Equal(t, "2h 30m", o.OutboundDuration)
}

func TestNormalizeRejectsEmptyOutbound(t *testing.T) {
	_, err := Normalize(Draft{ID: "x-4"}, SourceSabre, carriers, "BRL")
	require.ErrorIs(t, err, ErrNoOutboundSegments)
}

func TestNormalizeRejectsNegativePrice(t *testing.T) {
	d := Draft{
		ID:       "x-5",
		Amount:   decimal.NewFromInt(-1),
		Outbound: []Segment{segment("GRU", "SDU", time.Now(), time.Hour)},
	}
	_, err := Normalize(d, SourceAmadeus, carriers, "BRL")
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestNormalizeRejectsReturnDateWithoutSegments(t *testing.T) {
	ret := time.Now().AddDate(0, 0, 7)
	d := Draft{
		ID:       "x-6",
		ReturnAt: &ret,
		Outbound: []Segment{segment("GRU", "SDU", time.Now(), time.Hour)},
	}
	_, err := Normalize(d, SourceAmadeus, carriers, "BRL")
	require.Error(t, err)
}

func TestNormalizeRoundTrip(t *testing.T) {
	dep := time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC)
	ret := dep.AddDate(0, 0, 7)
	d := Draft{
		ID:       "x-7",
		Amount:   decimal.NewFromInt(1200),
		Currency: "USD",
		Outbound: []Segment{segment("GRU", "SDU", dep, time.Hour)},
		Return:   []Segment{segment("SDU", "GRU", ret, time.Hour)},
	}
	o, err := Normalize(d, SourceAmadeus, carriers, "BRL")
	require.NoError(t, err)
	require.NotNil(t, o.ReturnAt)
	require.Equal(t, ret, *o.ReturnAt, "return departure derived from first return segment")
	require.NotNil(t, o.ReturnStops)
	require.Equal(t, 0, *o.ReturnStops)
	require.Equal(t, "USD", o.Price.Currency)
	require.Equal(t, "1h 0m", o.ReturnDuration)
}
