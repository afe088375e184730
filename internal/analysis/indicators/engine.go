// Package indicators derives the fixed indicator bundle from a price series.
package indicators

import (
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
)

// MAWindows are the moving-average windows of every bundle.
var MAWindows = []int{5, 10, 20, 50, 100, 200}

// Fixed windows of the bundle.
const (
	VolumeWindow    = 20
	ADXPeriod       = 14
	RecentWindow    = 30
	LongRangeWindow = 365
)

// MovingAverage is the MA of one window; Value is nil when the series has
// fewer bars than the window.
type MovingAverage struct {
	Window int      `json:"window"`
	Value  *float64 `json:"value"`
}

// Available reports whether the average was computed.
func (m MovingAverage) Available() bool {
	return m.Value != nil
}

// Bundle is the indicator set derived from one PriceSeries.
// Pointer fields are nil when unavailable.
type Bundle struct {
	Symbol        string          `json:"symbol"`
	Bars          int             `json:"bars"`
	Latest        models.PriceBar `json:"latest"`
	PrevClose     *float64        `json:"prev_close"`
	Change        *float64        `json:"change"`
	ChangePercent *float64        `json:"change_percent"`

	// Session change against the open of the latest bar.
	IntradayChange        float64 `json:"intraday_change"`
	IntradayChangePercent float64 `json:"intraday_change_percent"`

	MovingAverages []MovingAverage `json:"moving_averages"`
	AvgVolume20    float64         `json:"avg_volume_20"`
	VolumeRatio    *float64        `json:"volume_ratio"`
	ADX            *float64        `json:"adx"`
	Range30        RangeStats      `json:"range_30"`
}

// MA returns the moving average of the given window.
func (b *Bundle) MA(window int) (MovingAverage, bool) {
	for _, ma := range b.MovingAverages {
		if ma.Window == window {
			return ma, true
		}
	}
	return MovingAverage{}, false
}

// VolumeLevel classifies the bundle's volume ratio.
func (b *Bundle) VolumeLevel() VolumeLevel {
	return ClassifyVolume(b.VolumeRatio)
}

// TrendStrength classifies the bundle's ADX.
func (b *Bundle) TrendStrength() TrendStrength {
	return ClassifyTrend(b.ADX)
}

// TrendStrength classifies an ADX value.
type TrendStrength string

const (
	TrendStrong      TrendStrength = "strong"
	TrendWeak        TrendStrength = "weak"
	TrendModerate    TrendStrength = "moderate"
	TrendUnavailable TrendStrength = "unavailable"
)

// ADX classification thresholds.
const (
	StrongTrendADX = 30.0
	WeakTrendADX   = 20.0
)

// ClassifyTrend maps an ADX value to a TrendStrength.
func ClassifyTrend(adx *float64) TrendStrength {
	switch {
	case adx == nil:
		return TrendUnavailable
	case *adx > StrongTrendADX:
		return TrendStrong
	case *adx < WeakTrendADX:
		return TrendWeak
	default:
		return TrendModerate
	}
}

// Compute derives the bundle. It has no side effects and the same series
// always yields the same bundle.
func Compute(series models.PriceSeries) (*Bundle, error) {
	bars := series.Bars
	latest, ok := series.Latest()
	if !ok {
		return nil, apperrors.NewDataError("indicators", series.Symbol, "no bars", apperrors.ErrEmptySeries)
	}

	b := &Bundle{
		Symbol: series.Symbol,
		Bars:   len(bars),
		Latest: latest,
	}

	if len(bars) >= 2 {
		prev := bars[len(bars)-2].Close
		change := latest.Close - prev
		b.PrevClose = ptr(prev)
		b.Change = ptr(change)
		if prev != 0 {
			b.ChangePercent = ptr(change / prev * 100)
		}
	}

	b.IntradayChange = latest.Close - latest.Open
	if latest.Open != 0 {
		b.IntradayChangePercent = b.IntradayChange / latest.Open * 100
	}

	b.MovingAverages = make([]MovingAverage, 0, len(MAWindows))
	for _, w := range MAWindows {
		ma := MovingAverage{Window: w}
		if v, err := NewSMA(w).Last(bars); err == nil {
			ma.Value = ptr(v)
		}
		b.MovingAverages = append(b.MovingAverages, ma)
	}

	b.AvgVolume20 = AverageVolume(bars, VolumeWindow)
	b.VolumeRatio = VolumeRatio(latest.Volume, b.AvgVolume20)

	if v, err := NewADX(ADXPeriod).Last(bars); err == nil {
		b.ADX = ptr(v)
	}

	b.Range30, _ = CalculateRange(bars, RecentWindow)

	return b, nil
}

// LongRange returns the statistics of the long window. ok is false when the
// series does not extend beyond the recent window.
func LongRange(series models.PriceSeries) (RangeStats, bool) {
	if series.Len() <= RecentWindow {
		return RangeStats{}, false
	}
	return CalculateRange(series.Bars, LongRangeWindow)
}
