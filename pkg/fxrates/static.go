package fxrates

import (
	"context"
	"fmt"
	"time"

	"github.com/reksie/crosspay-cache/pkg/keys"
)

type staticProvider struct {
	rates map[string]float64
}

// NewStaticProvider serves a fixed table of rates keyed by "BASE:QUOTE".
// Inverse pairs and same-currency pairs are derived.
func NewStaticProvider(rates map[string]float64) Provider {
	table := make(map[string]float64, len(rates))
	for pair, rate := range rates {
		table[pair] = rate
	}
	return &staticProvider{rates: table}
}

// DefaultRates is the table used when no rates API is configured.
func DefaultRates() map[string]float64 {
	return map[string]float64{
		"USD:EUR": 0.85,
		"USD:GBP": 0.79,
		"USD:NGN": 1550.0,
		"USD:KES": 129.5,
		"EUR:GBP": 0.86,
	}
}

func (p *staticProvider) Rate(_ context.Context, base, quote string) (float64, error) {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		return 0, err
	}
	if base == quote {
		return 1, nil
	}
	if rate, ok := p.rates[keys.Join(base, quote)]; ok {
		return rate, nil
	}
	if rate, ok := p.rates[keys.Join(quote, base)]; ok && rate != 0 {
		return 1 / rate, nil
	}
	return 0, fmt.Errorf("%w: %s/%s", ErrUnknownPair, base, quote)
}

// History returns a flat daily series at the table rate.
func (p *staticProvider) History(ctx context.Context, query HistoryQuery) ([]Point, error) {
	query, err := query.normalize()
	if err != nil {
		return nil, err
	}
	rate, err := p.Rate(ctx, query.Base, query.Quote)
	if err != nil {
		return nil, err
	}

	var points []Point
	for day := query.From; !day.After(query.To); day = day.Add(24 * time.Hour) {
		points = append(points, Point{Date: day.Format(dateLayout), Rate: rate})
	}
	return points, nil
}
