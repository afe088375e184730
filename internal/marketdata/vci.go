package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/models"
)

// DefaultVCIBaseURL is the public Vietcap trading API host.
const DefaultVCIBaseURL = "https://trading.vietcap.com.vn"

const vciChartPath = "/api/chart/OHLCChart/gap-chart"

// VCIClient implements Provider using the Vietcap chart API. It serves
// price history only.
type VCIClient struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewVCIClient creates a VCI client.
func NewVCIClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *VCIClient {
	if baseURL == "" {
		baseURL = DefaultVCIBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Content-Type", "application/json")

	return &VCIClient{
		client: client,
		logger: logger.With().Str("source", string(models.SourceVCI)).Logger(),
	}
}

func (c *VCIClient) Source() models.Source {
	return models.SourceVCI
}

var vciTimeFrames = map[models.Interval]string{
	models.IntervalDay:   "ONE_DAY",
	models.IntervalWeek:  "ONE_WEEK",
	models.IntervalMonth: "ONE_MONTH",
}

type vciChartRequest struct {
	TimeFrame string   `json:"timeFrame"`
	Symbols   []string `json:"symbols"`
	To        int64    `json:"to"`
	CountBack int      `json:"countBack"`
}

// vciChart holds parallel OHLCV arrays; t is unix seconds.
type vciChart struct {
	Symbol string        `json:"symbol"`
	O      []json.Number `json:"o"`
	H      []json.Number `json:"h"`
	L      []json.Number `json:"l"`
	C      []json.Number `json:"c"`
	V      []json.Number `json:"v"`
	T      []interface{} `json:"t"`
}

// History fetches OHLCV bars.
func (c *VCIClient) History(ctx context.Context, req HistoryRequest) (models.PriceSeries, error) {
	req, err := validateRequest(req)
	if err != nil {
		return models.PriceSeries{}, err
	}
	timeFrame, ok := vciTimeFrames[req.Interval]
	if !ok {
		return models.PriceSeries{}, apperrors.NewValidationError("interval", req.Interval, "unsupported interval")
	}

	countBack := int(req.To.Sub(req.From).Hours()/24) + 1

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(vciChartRequest{
			TimeFrame: timeFrame,
			Symbols:   []string{req.Symbol},
			To:        req.To.Unix(),
			CountBack: countBack,
		}).
		Post(vciChartPath)
	logging.LogAPICall(c.logger, http.MethodPost, vciChartPath, time.Since(start), err)

	if err != nil {
		return models.PriceSeries{}, apperrors.NewDataError("history", req.Symbol, "request failed", fmt.Errorf("%w: %v", apperrors.ErrDataUnavailable, err))
	}
	if resp.StatusCode() != http.StatusOK {
		return models.PriceSeries{}, apperrors.NewDataError("history", req.Symbol, fmt.Sprintf("API error %d", resp.StatusCode()), apperrors.ErrDataUnavailable)
	}

	var charts []vciChart
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(&charts); err != nil {
		return models.PriceSeries{}, apperrors.NewDataError("history", req.Symbol, "failed to parse response", fmt.Errorf("%w: %v", apperrors.ErrDataUnavailable, err))
	}

	var raw []models.PriceBar
	for _, chart := range charts {
		if chart.Symbol != "" && chart.Symbol != req.Symbol {
			continue
		}
		n := min(len(chart.T), len(chart.O), len(chart.H), len(chart.L), len(chart.C), len(chart.V))
		for i := 0; i < n; i++ {
			ts, ok := unixSeconds(chart.T[i])
			if !ok {
				continue
			}
			date := tradingDay(time.Unix(ts, 0))
			if date.Before(tradingDay(req.From)) {
				continue
			}
			raw = append(raw, models.PriceBar{
				Date:   date,
				Open:   toFloat(chart.O[i]),
				High:   toFloat(chart.H[i]),
				Low:    toFloat(chart.L[i]),
				Close:  toFloat(chart.C[i]),
				Volume: int64(toFloat(chart.V[i])),
			})
		}
	}
	return buildSeries(models.SourceVCI, req, raw)
}

// CompanyOverview is not served by VCI.
func (c *VCIClient) CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	return nil, apperrors.NewDataError("company", symbol, "not available from VCI", apperrors.ErrUnsupported)
}

// Statement is not served by VCI.
func (c *VCIClient) Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error) {
	return nil, apperrors.NewDataError(string(kind), symbol, "not available from VCI", apperrors.ErrUnsupported)
}

func unixSeconds(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}
