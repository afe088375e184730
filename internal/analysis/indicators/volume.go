package indicators

import (
	"vnstock-advisor/internal/models"
)

// VolumeLevel classifies the latest volume against its average.
type VolumeLevel string

const (
	VolumeHigh        VolumeLevel = "high"
	VolumeLow         VolumeLevel = "low"
	VolumeNormal      VolumeLevel = "normal"
	VolumeUnavailable VolumeLevel = "unavailable"
)

// Volume ratio thresholds, in percent of average volume.
const (
	HighVolumeRatio = 150.0
	LowVolumeRatio  = 50.0
)

// AverageVolume returns the mean volume of the trailing window bars,
// or of all bars when the series is shorter than the window.
func AverageVolume(bars []models.PriceBar, window int) float64 {
	if len(bars) == 0 || window <= 0 {
		return 0
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	var total float64
	for _, b := range bars[start:] {
		total += float64(b.Volume)
	}
	return total / float64(len(bars)-start)
}

// VolumeRatio returns latest / average * 100. It is undefined (nil) when
// the average is zero.
func VolumeRatio(latest int64, average float64) *float64 {
	if average == 0 {
		return nil
	}
	return ptr(float64(latest) / average * 100)
}

// ClassifyVolume maps a volume ratio to a VolumeLevel.
func ClassifyVolume(ratio *float64) VolumeLevel {
	switch {
	case ratio == nil:
		return VolumeUnavailable
	case *ratio > HighVolumeRatio:
		return VolumeHigh
	case *ratio < LowVolumeRatio:
		return VolumeLow
	default:
		return VolumeNormal
	}
}
