package fxrates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrUnknownPair     = errors.New("unknown currency pair")
	ErrInvalidRange    = errors.New("invalid history range")
)

const dateLayout = "2006-01-02"

// Provider fetches exchange rates from an upstream source.
type Provider interface {
	Rate(ctx context.Context, base, quote string) (float64, error)
	History(ctx context.Context, query HistoryQuery) ([]Point, error)
}

// HistoryQuery selects a daily rate series between two dates, inclusive.
type HistoryQuery struct {
	Base  string    `json:"base"`
	Quote string    `json:"quote"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

type Point struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// NormalizeCurrency upper-cases an ISO 4217 style code and checks it is three letters.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

func normalizePair(base, quote string) (string, string, error) {
	b, err := NormalizeCurrency(base)
	if err != nil {
		return "", "", err
	}
	q, err := NormalizeCurrency(quote)
	if err != nil {
		return "", "", err
	}
	return b, q, nil
}

func (q HistoryQuery) normalize() (HistoryQuery, error) {
	base, quote, err := normalizePair(q.Base, q.Quote)
	if err != nil {
		return HistoryQuery{}, err
	}
	from := q.From.UTC().Truncate(24 * time.Hour)
	to := q.To.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return HistoryQuery{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to.Format(dateLayout), from.Format(dateLayout))
	}
	return HistoryQuery{Base: base, Quote: quote, From: from, To: to}, nil
}
