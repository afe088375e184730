// Package scan runs the batch buy-signal scan over a list of tickers.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"vnstock-advisor/internal/agents"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/marketdata"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/recommend"
	"vnstock-advisor/pkg/utils"
)

// QuestionTemplate is asked for every scanned symbol. It names the method so
// the method knowledge is selected.
const QuestionTemplate = "Phân tích mã %s theo phương pháp Chim Cút. Hiện tại có nên mua không? Kết thúc bằng khuyến nghị vị thế."

// Question returns the scan question of symbol.
func Question(symbol string) string {
	return fmt.Sprintf(QuestionTemplate, symbol)
}

// Answerer produces an assistant answer grounded in a series.
type Answerer interface {
	Answer(ctx context.Context, symbol, question string, series models.PriceSeries) agents.Answer
}

// HistoryFetcher fetches a price series.
type HistoryFetcher interface {
	History(ctx context.Context, req marketdata.HistoryRequest) (models.PriceSeries, error)
}

// Progress is reported after each symbol.
type Progress struct {
	ScanID      string `json:"scan_id"`
	Symbol      string `json:"symbol"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`
	Recommended bool   `json:"recommended"`
	Err         error  `json:"-"`
}

// Fraction is Done/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// Scanner analyzes symbols one at a time.
type Scanner struct {
	fetcher  HistoryFetcher
	advisor  Answerer
	days     int
	interval models.Interval
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScanner creates a scanner fetching days of history per symbol.
func NewScanner(fetcher HistoryFetcher, advisor Answerer, days int, logger zerolog.Logger) *Scanner {
	return &Scanner{
		fetcher:  fetcher,
		advisor:  advisor,
		days:     days,
		interval: models.IntervalDay,
		logger:   logger,
		now:      time.Now,
	}
}

// Run scans symbols sequentially with one fetch and one assistant call each.
// A failing symbol is recorded and the scan moves on. progress, when set, is
// called after every symbol. Cancelling ctx stops the scan before the next
// symbol.
func (s *Scanner) Run(ctx context.Context, symbols []string, progress func(Progress)) models.ScanReport {
	report := models.ScanReport{
		ID:          uuid.NewString(),
		Started:     s.now(),
		Symbols:     append([]string(nil), symbols...),
		Recommended: []models.ScanResult{},
		Failures:    []models.ScanFailure{},
	}
	logger := logging.WithOperation(s.logger, "scan")

	for i, raw := range symbols {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Int("remaining", len(symbols)-i).Msg("Scan cancelled")
			break
		}

		symbol, result, err := s.scanOne(ctx, raw)
		step := Progress{ScanID: report.ID, Symbol: symbol, Done: i + 1, Total: len(symbols), Err: err}
		switch {
		case err != nil:
			report.Failures = append(report.Failures, models.ScanFailure{Symbol: symbol, Reason: err.Error()})
		default:
			report.Analyzed++
			if result != nil {
				report.Recommended = append(report.Recommended, *result)
				step.Recommended = true
			}
		}

		logging.LogScanProgress(logger, report.ID, symbol, step.Done, step.Total, err)
		if progress != nil {
			progress(step)
		}
	}

	report.Finished = s.now()
	return report
}

// scanOne returns a non-nil result only for a buy recommendation.
func (s *Scanner) scanOne(ctx context.Context, raw string) (string, *models.ScanResult, error) {
	symbol, err := marketdata.NormalizeSymbol(raw)
	if err != nil {
		return raw, nil, err
	}

	from, to := utils.TradingWindow(s.days, s.now())
	series, err := s.fetcher.History(ctx, marketdata.HistoryRequest{
		Symbol:   symbol,
		From:     from,
		To:       to,
		Interval: s.interval,
	})
	if err != nil {
		return symbol, nil, err
	}

	answer := s.advisor.Answer(ctx, symbol, Question(symbol), series)
	if answer.Failed {
		if answer.Err != nil {
			return symbol, nil, answer.Err
		}
		return symbol, nil, fmt.Errorf("%s", answer.Text)
	}
	if !recommend.IsBuy(answer.Text) {
		return symbol, nil, nil
	}

	latest, _ := series.Latest()
	return symbol, &models.ScanResult{
		Symbol:   symbol,
		Price:    latest.Close,
		Analysis: answer.Text,
	}, nil
}
