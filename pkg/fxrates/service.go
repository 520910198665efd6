package fxrates

import (
	"context"
	"time"

	"github.com/reksie/crosspay-cache/pkg/expirecache"
	"github.com/reksie/crosspay-cache/pkg/keys"
	"go.uber.org/zap"
)

const (
	DefaultRateTTL    = time.Minute
	DefaultHistoryTTL = 30 * time.Minute
)

// Service answers rate and conversion queries, caching upstream answers.
type Service struct {
	cache      *expirecache.Cache
	provider   Provider
	rateTTL    time.Duration
	historyTTL time.Duration
	logger     *zap.Logger
}

type ServiceOption func(*Service)

func WithRateTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.rateTTL = ttl }
}

func WithHistoryTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.historyTTL = ttl }
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func NewService(cache *expirecache.Cache, provider Provider, opts ...ServiceOption) *Service {
	s := &Service{
		cache:      cache,
		provider:   provider,
		rateTTL:    DefaultRateTTL,
		historyTTL: DefaultHistoryTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate returns units of quote per unit of base.
func (s *Service) Rate(ctx context.Context, base, quote string) (float64, error) {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		return 0, err
	}
	if base == quote {
		return 1, nil
	}

	return expirecache.Remember(ctx, s.cache, keys.Join("rate", base, quote), s.rateTTL, func(ctx context.Context) (float64, error) {
		s.logger.Debug("fetching rate", zap.String("base", base), zap.String("quote", quote))
		return s.provider.Rate(ctx, base, quote)
	})
}

// Convert converts amount from base to quote at the current rate.
func (s *Service) Convert(ctx context.Context, amount float64, base, quote string) (float64, error) {
	rate, err := s.Rate(ctx, base, quote)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

func (s *Service) History(ctx context.Context, query HistoryQuery) ([]Point, error) {
	query, err := query.normalize()
	if err != nil {
		return nil, err
	}

	hash, err := keys.HashStructMD5SortedKeys(query)
	if err != nil {
		return nil, err
	}

	return expirecache.Remember(ctx, s.cache, keys.Join("history", hash), s.historyTTL, func(ctx context.Context) ([]Point, error) {
		s.logger.Debug("fetching history",
			zap.String("base", query.Base),
			zap.String("quote", query.Quote),
			zap.Time("from", query.From),
			zap.Time("to", query.To),
		)
		return s.provider.History(ctx, query)
	})
}

// Invalidate drops the cached rate for a pair.
func (s *Service) Invalidate(ctx context.Context, base, quote string) error {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		return err
	}
	s.cache.Remove(ctx, keys.Join("rate", base, quote))
	return nil
}
