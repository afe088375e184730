package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/resilience"
)

// GuardedProvider wraps a provider with its source's circuit breaker. Only
// upstream failures (ErrDataUnavailable) count against the circuit; invalid
// input and unsupported operations do not.
type GuardedProvider struct {
	inner   Provider
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// BreakerConfig builds the breaker configuration used for market sources.
func BreakerConfig(failures int, cfg resilience.CircuitBreakerConfig) resilience.CircuitBreakerConfig {
	if failures > 0 {
		cfg.FailureThreshold = failures
	}
	cfg.IsFailure = func(err error) bool {
		return errors.Is(err, apperrors.ErrDataUnavailable)
	}
	return cfg
}

// Guard wraps every provider with a breaker from breakers, keyed by source.
func Guard(breakers *resilience.CircuitBreakerRegistry, logger zerolog.Logger, providers ...Provider) []Provider {
	out := make([]Provider, len(providers))
	for i, p := range providers {
		out[i] = NewGuardedProvider(p, breakers.Get(string(p.Source())), logger)
	}
	return out
}

// NewGuardedProvider wraps inner with breaker.
func NewGuardedProvider(inner Provider, breaker *resilience.CircuitBreaker, logger zerolog.Logger) *GuardedProvider {
	return &GuardedProvider{inner: inner, breaker: breaker, logger: logger}
}

// Source returns the wrapped provider's source.
func (g *GuardedProvider) Source() models.Source {
	return g.inner.Source()
}

// History fetches bars through the breaker.
func (g *GuardedProvider) History(ctx context.Context, req HistoryRequest) (models.PriceSeries, error) {
	series, err := resilience.Execute(g.breaker, ctx, func(ctx context.Context) (models.PriceSeries, error) {
		return g.inner.History(ctx, req)
	})
	return series, g.translate(err, "history", req.Symbol)
}

// CompanyOverview fetches the profile through the breaker.
func (g *GuardedProvider) CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	overview, err := resilience.Execute(g.breaker, ctx, func(ctx context.Context) (*models.CompanyOverview, error) {
		return g.inner.CompanyOverview(ctx, symbol)
	})
	return overview, g.translate(err, "company", symbol)
}

// Statement fetches a financial statement through the breaker.
func (g *GuardedProvider) Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error) {
	statement, err := resilience.Execute(g.breaker, ctx, func(ctx context.Context) (*models.FinancialStatement, error) {
		return g.inner.Statement(ctx, symbol, kind, period, lang)
	})
	return statement, g.translate(err, string(kind), symbol)
}

// translate turns a rejected call into a data error so callers treat it like
// any other upstream outage.
func (g *GuardedProvider) translate(err error, dataType, symbol string) error {
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		return err
	}
	g.logger.Warn().
		Str("source", string(g.inner.Source())).
		Str("symbol", symbol).
		Msg("Upstream paused after repeated failures")
	return apperrors.NewDataError(dataType, symbol,
		fmt.Sprintf("%s temporarily unavailable", g.inner.Source()),
		fmt.Errorf("%w: %w", apperrors.ErrDataUnavailable, err))
}
