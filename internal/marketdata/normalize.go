package marketdata

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/pkg/utils"
)

// tradingDay maps a provider timestamp to its calendar date in Vietnam,
// expressed as UTC midnight.
func tradingDay(t time.Time) time.Time {
	local := t.In(utils.VietnamLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// normalizeBars orders bars by date, keeps one bar per date (the last one
// received), drops bars without a positive close and widens high/low to
// cover open and close.
func normalizeBars(raw []models.PriceBar) []models.PriceBar {
	byDate := make(map[time.Time]models.PriceBar, len(raw))
	for _, b := range raw {
		if b.Close <= 0 || math.IsNaN(b.Close) {
			continue
		}
		b.Date = tradingDay(b.Date)
		if b.Open <= 0 {
			b.Open = b.Close
		}
		if b.Volume < 0 {
			b.Volume = 0
		}
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		if b.Low <= 0 || b.Low > math.Min(b.Open, b.Close) {
			b.Low = math.Min(b.Open, b.Close)
		}
		byDate[b.Date] = b
	}

	bars := make([]models.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

// buildSeries normalizes raw bars into a series. An empty result is a
// DataError wrapping ErrEmptySeries.
func buildSeries(source models.Source, req HistoryRequest, raw []models.PriceBar) (models.PriceSeries, error) {
	series := models.PriceSeries{
		Symbol:   req.Symbol,
		Source:   source,
		Interval: req.Interval,
		From:     req.From,
		To:       req.To,
		Bars:     normalizeBars(raw),
	}
	if len(series.Bars) == 0 {
		return series, apperrors.NewDataError("history", req.Symbol, "provider returned no usable bars", apperrors.ErrEmptySeries)
	}
	return series, nil
}

// toDecimal coerces a loosely-typed JSON value. ok is false for null,
// empty or non-numeric values.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Zero, false
}

// toFloat coerces a loosely-typed JSON value to float64.
func toFloat(v interface{}) float64 {
	d, ok := toDecimal(v)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// toInt coerces a loosely-typed JSON value to int.
func toInt(v interface{}) int {
	d, ok := toDecimal(v)
	if !ok {
		return 0
	}
	return int(d.IntPart())
}

// toText renders an attribute value; numbers keep their exact decimal form.
func toText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	if d, ok := toDecimal(v); ok {
		return d.String()
	}
	return fmt.Sprint(v)
}
