// Package marketdata fetches Vietnamese equity data from upstream providers
// and coerces it into the domain records once, at ingestion.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
)

// userAgent is sent on every upstream request; the providers reject
// requests without a browser agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// HistoryRequest selects a window of bars.
type HistoryRequest struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Interval models.Interval
}

// Provider is the market-data collaborator.
type Provider interface {
	Source() models.Source
	History(ctx context.Context, req HistoryRequest) (models.PriceSeries, error)
	CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error)
	Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error)
}

// Registry resolves a data-source selector to its provider.
type Registry struct {
	providers map[models.Source]Provider
}

// NewRegistry registers providers by their source.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Source]Provider)}
	for _, p := range providers {
		r.providers[p.Source()] = p
	}
	return r
}

// Get returns the provider of source.
func (r *Registry) Get(source models.Source) (Provider, error) {
	p, ok := r.providers[models.Source(strings.ToUpper(string(source)))]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedSource, "source %q", source)
	}
	return p, nil
}

// Sources lists the registered sources in name order.
func (r *Registry) Sources() []models.Source {
	out := make([]models.Source, 0, len(r.providers))
	for s := range r.providers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NormalizeSymbol upper-cases and validates a ticker symbol.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) < 2 || len(s) > 10 {
		return "", apperrors.NewValidationError("symbol", symbol, "must be 2-10 characters")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", apperrors.NewValidationError("symbol", symbol, "must be alphanumeric")
		}
	}
	return s, nil
}

func validateRequest(req HistoryRequest) (HistoryRequest, error) {
	symbol, err := NormalizeSymbol(req.Symbol)
	if err != nil {
		return req, fmt.Errorf("%w: %v", apperrors.ErrInvalidSymbol, err)
	}
	req.Symbol = symbol
	if req.Interval == "" {
		req.Interval = models.IntervalDay
	}
	if !req.From.Before(req.To) {
		return req, apperrors.NewValidationError("window", fmt.Sprintf("%s..%s", req.From, req.To), "start must be before end")
	}
	return req, nil
}
