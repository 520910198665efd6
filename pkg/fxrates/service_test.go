package fxrates

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-test/deep"
	"github.com/reksie/crosspay-cache/pkg/expirecache"
	"github.com/reksie/crosspay-cache/pkg/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider records upstream calls.
type countingProvider struct {
	Provider
	rateCalls    atomic.Int32
	historyCalls atomic.Int32
}

func (p *countingProvider) Rate(ctx context.Context, base, quote string) (float64, error) {
	p.rateCalls.Add(1)
	return p.Provider.Rate(ctx, base, quote)
}

func (p *countingProvider) History(ctx context.Context, query HistoryQuery) ([]Point, error) {
	p.historyCalls.Add(1)
	return p.Provider.History(ctx, query)
}

func setupService(t *testing.T) (*Service, *countingProvider, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	cache := expirecache.New(stores.CreateBoundedStore("local", 0), expirecache.WithClock(clk))
	provider := &countingProvider{Provider: NewStaticProvider(DefaultRates())}
	return NewService(cache, provider), provider, clk
}

func TestServiceRateIsCached(t *testing.T) {
	ctx := context.Background()
	svc, provider, clk := setupService(t)

	rate, err := svc.Rate(ctx, "usd", "eur")
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)

	rate, err = svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)
	assert.Equal(t, int32(1), provider.rateCalls.Load())

	clk.Add(61 * time.Second)
	_, err = svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.rateCalls.Load())
}

func TestServiceSameCurrency(t *testing.T) {
	svc, provider, _ := setupService(t)

	rate, err := svc.Rate(context.Background(), "GBP", "gbp")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
	assert.Equal(t, int32(0), provider.rateCalls.Load())
}

func TestServiceInvalidCurrency(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Rate(context.Background(), "US", "EUR")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = svc.Rate(context.Background(), "USD", "E1R")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestServiceUnknownPairIsNotCached(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupService(t)

	_, err := svc.Rate(ctx, "USD", "JPY")
	assert.ErrorIs(t, err, ErrUnknownPair)
	_, err = svc.Rate(ctx, "USD", "JPY")
	assert.ErrorIs(t, err, ErrUnknownPair)
	assert.Equal(t, int32(2), provider.rateCalls.Load())
}

func TestServiceConvert(t *testing.T) {
	svc, _, _ := setupService(t)

	amount, err := svc.Convert(context.Background(), 200, "EUR", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 200/0.85, amount, 1e-9)
}

func TestServiceInvalidate(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupService(t)

	_, _ = svc.Rate(ctx, "USD", "GBP")
	require.NoError(t, svc.Invalidate(ctx, "usd", "gbp"))
	_, _ = svc.Rate(ctx, "USD", "GBP")
	assert.Equal(t, int32(2), provider.rateCalls.Load())

	assert.ErrorIs(t, svc.Invalidate(ctx, "dollars", "GBP"), ErrInvalidCurrency)
}

func TestServiceHistory(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupService(t)

	query := HistoryQuery{
		Base:  "usd",
		Quote: "eur",
		From:  time.Date(2024, 2, 27, 15, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC),
	}

	points, err := svc.History(ctx, query)
	require.NoError(t, err)
	expected := []Point{
		{Date: "2024-02-27", Rate: 0.85},
		{Date: "2024-02-28", Rate: 0.85},
		{Date: "2024-02-29", Rate: 0.85},
	}
	if diff := deep.Equal(expected, points); diff != nil {
		t.Error(diff)
	}

	// same days, different hours and case: same cache entry
	query.Base = "USD"
	query.From = time.Date(2024, 2, 27, 1, 0, 0, 0, time.UTC)
	_, err = svc.History(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.historyCalls.Load())
}

func TestServiceHistoryInvalidRange(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.History(context.Background(), HistoryQuery{
		Base:  "USD",
		Quote: "EUR",
		From:  time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestServiceHistoryTTL(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	cache := expirecache.New(stores.CreateBoundedStore("local", 0), expirecache.WithClock(clk))
	provider := &countingProvider{Provider: NewStaticProvider(DefaultRates())}
	svc := NewService(cache, provider, WithHistoryTTL(5*time.Minute))

	query := HistoryQuery{
		Base:  "USD",
		Quote: "GBP",
		From:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.History(ctx, query)
	require.NoError(t, err)

	clk.Add(5 * time.Minute)
	_, err = svc.History(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.historyCalls.Load())

	clk.Add(time.Millisecond)
	_, err = svc.History(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.historyCalls.Load())
}
