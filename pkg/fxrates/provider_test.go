package fxrates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	for _, bad := range []string{"", "US", "USDT", "U$D"} {
		_, err := NormalizeCurrency(bad)
		assert.ErrorIs(t, err, ErrInvalidCurrency, bad)
	}
}

func TestStaticProviderRate(t *testing.T) {
	ctx := context.Background()
	provider := NewStaticProvider(map[string]float64{"USD:EUR": 0.8})

	rate, err := provider.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.8, rate)

	rate, err = provider.Rate(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.25, rate)

	rate, err = provider.Rate(ctx, "EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = provider.Rate(ctx, "USD", "JPY")
	assert.ErrorIs(t, err, ErrUnknownPair)
}

func newRatesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rates/USD/EUR", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rateResponse{Base: "USD", Quote: "EUR", Rate: 0.85})
	})
	mux.HandleFunc("/rates/USD/XXX", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("base") != "USD" || q.Get("quote") != "EUR" || q.Get("from") != "2024-03-01" || q.Get("to") != "2024-03-02" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(historyResponse{Points: []Point{
			{Date: "2024-03-01", Rate: 0.85},
			{Date: "2024-03-02", Rate: 0.86},
		}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProviderRate(t *testing.T) {
	server := newRatesServer(t)
	provider := NewHTTPProvider(server.URL+"/", server.Client())
	ctx := context.Background()

	rate, err := provider.Rate(ctx, "usd", "eur")
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)

	_, err = provider.Rate(ctx, "USD", "GBP")
	assert.ErrorIs(t, err, ErrUnknownPair)

	_, err = provider.Rate(ctx, "USD", "XXX")
	assert.ErrorContains(t, err, "status 502")
}

func TestHTTPProviderHistory(t *testing.T) {
	server := newRatesServer(t)
	provider := NewHTTPProvider(server.URL, nil)

	points, err := provider.History(context.Background(), HistoryQuery{
		Base:  "USD",
		Quote: "EUR",
		From:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	if diff := deep.Equal([]Point{{Date: "2024-03-01", Rate: 0.85}, {Date: "2024-03-02", Rate: 0.86}}, points); diff != nil {
		t.Error(diff)
	}
}
