package utils

import (
	"testing"
	"time"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{17, "17.00"},
		{26500, "26,500.00"},
		{1234567.891, "1,234,567.89"},
		{-1500.5, "-1,500.50"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatVolumeAndPercent(t *testing.T) {
	if got := FormatVolume(1234567); got != "1,234,567" {
		t.Errorf("FormatVolume = %q", got)
	}
	if got := FormatQuantity(9876543); got != "9,876,543" {
		t.Errorf("FormatQuantity = %q", got)
	}
	if got := FormatPercent(11.764705); got != "+11.76%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(-3.1); got != "-3.10%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatChange(-0.5); got != "-0.50" {
		t.Errorf("FormatChange = %q", got)
	}
	if got := FormatCompact(2.5e9); got != "2.50 tỷ" {
		t.Errorf("FormatCompact = %q", got)
	}
}

func TestMarketStatusAt(t *testing.T) {
	day := func(h, m int) time.Time {
		// 2024-03-05 is a Tuesday.
		return time.Date(2024, 3, 5, h, m, 0, 0, VietnamLocation)
	}
	tests := []struct {
		at   time.Time
		want MarketStatus
	}{
		{day(8, 59), MarketClosed},
		{day(9, 0), MarketPreOpen},
		{day(10, 0), MarketOpen},
		{day(12, 0), MarketLunchBreak},
		{day(13, 30), MarketOpen},
		{day(14, 40), MarketClosingATC},
		{day(15, 0), MarketClosed},
		{time.Date(2024, 3, 9, 10, 0, 0, 0, VietnamLocation), MarketClosed},
	}
	for _, tt := range tests {
		if got := MarketStatusAt(tt.at); got != tt.want {
			t.Errorf("MarketStatusAt(%s) = %s, want %s", tt.at.Format(time.Kitchen), got, tt.want)
		}
	}
}

func TestTradingWindow(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 30, 0, 0, VietnamLocation)
	from, to := TradingWindow(90, now)
	if to.Day() != 5 || to.Hour() != 0 {
		t.Errorf("to = %s", to)
	}
	if got := to.Sub(from); got != 90*24*time.Hour {
		t.Errorf("window = %s", got)
	}
}
