package indicators

import (
	"time"

	"vnstock-advisor/internal/models"
)

// RangeStats summarizes the extremes of a trailing window.
type RangeStats struct {
	Bars         int       `json:"bars"`
	High         float64   `json:"high"`
	HighDate     time.Time `json:"high_date"`
	Low          float64   `json:"low"`
	LowDate      time.Time `json:"low_date"`
	RangePercent float64   `json:"range_percent"` // (high-low)/low*100
	AvgClose     float64   `json:"avg_close"`
	Position     float64   `json:"position"` // latest close within [low, high], 0-100
}

// CalculateRange scans the trailing window bars (all bars when shorter).
// ok is false for an empty input.
func CalculateRange(bars []models.PriceBar, window int) (RangeStats, bool) {
	if len(bars) == 0 || window <= 0 {
		return RangeStats{}, false
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	tail := bars[start:]

	stats := RangeStats{
		Bars:     len(tail),
		High:     tail[0].High,
		HighDate: tail[0].Date,
		Low:      tail[0].Low,
		LowDate:  tail[0].Date,
	}
	var closes float64
	for _, b := range tail {
		if b.High > stats.High {
			stats.High = b.High
			stats.HighDate = b.Date
		}
		if b.Low < stats.Low {
			stats.Low = b.Low
			stats.LowDate = b.Date
		}
		closes += b.Close
	}
	stats.AvgClose = closes / float64(len(tail))

	if stats.Low > 0 {
		stats.RangePercent = (stats.High - stats.Low) / stats.Low * 100
	}

	last := tail[len(tail)-1].Close
	if stats.High == stats.Low {
		stats.Position = 50
	} else {
		stats.Position = (last - stats.Low) / (stats.High - stats.Low) * 100
	}
	return stats, true
}
