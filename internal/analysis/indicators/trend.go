package indicators

import (
	"fmt"

	"vnstock-advisor/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("MA%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

// Calculate returns the SMA series; entries before the first full window are zero.
func (s *SMA) Calculate(bars []models.PriceBar) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(bars))
	closes := closePrices(bars)

	for i := s.period - 1; i < len(bars); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// Last returns the mean of the last period closes. It never averages a
// partial window: a short series yields ErrInsufficientData.
func (s *SMA) Last(bars []models.PriceBar) (float64, error) {
	if s.period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(bars) < s.period {
		return 0, ErrInsufficientData
	}
	return mean(closePrices(bars[len(bars)-s.period:])), nil
}

// ADX calculates Average Directional Index with +DI and -DI.
type ADX struct {
	period int
}

// NewADX creates a new ADX indicator.
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX%d", a.period)
}

// Period is the minimum number of bars for a first value.
func (a *ADX) Period() int {
	return a.period + 1
}

// Calculate returns full-length "adx", "dx", "plus_di" and "minus_di" series.
// Values are defined from index period onward; earlier entries are zero.
// ADX at bar i is the mean of the DX values of the trailing period bars,
// using however many DX values exist when fewer are available.
func (a *ADX) Calculate(bars []models.PriceBar) (map[string][]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < a.Period() {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)

	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	// Index 0 has no previous bar, smooth from index 1.
	smoothPlusDM := wilderSmooth(plusDM[1:], a.period)
	smoothMinusDM := wilderSmooth(minusDM[1:], a.period)
	smoothTR := wilderSmooth(tr[1:], a.period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	adx := make([]float64, n)

	for i := a.period; i < n; i++ {
		j := i - 1
		if smoothTR[j] != 0 {
			plusDI[i] = 100 * smoothPlusDM[j] / smoothTR[j]
			minusDI[i] = 100 * smoothMinusDM[j] / smoothTR[j]
		}
		// No directional movement: DX is zero.
		diSum := plusDI[i] + minusDI[i]
		if diSum != 0 {
			dx[i] = 100 * abs(plusDI[i]-minusDI[i]) / diSum
		}

		start := i - a.period + 1
		if start < a.period {
			start = a.period
		}
		adx[i] = mean(dx[start : i+1])
	}

	return map[string][]float64{
		"adx":      adx,
		"dx":       dx,
		"plus_di":  plusDI,
		"minus_di": minusDI,
	}, nil
}

// Last returns the ADX value of the latest bar.
func (a *ADX) Last(bars []models.PriceBar) (float64, error) {
	values, err := a.Calculate(bars)
	if err != nil {
		return 0, err
	}
	return values["adx"][len(bars)-1], nil
}
