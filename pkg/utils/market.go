package utils

import (
	"time"
)

// VietnamLocation is the timezone of the HOSE and HNX exchanges.
var VietnamLocation *time.Location

func init() {
	var err error
	VietnamLocation, err = time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		// Fallback to UTC+7
		VietnamLocation = time.FixedZone("ICT", 7*60*60)
	}
}

// MarketStatus is the trading phase of the exchange.
type MarketStatus string

const (
	MarketClosed     MarketStatus = "closed"
	MarketPreOpen    MarketStatus = "ato"
	MarketOpen       MarketStatus = "open"
	MarketLunchBreak MarketStatus = "lunch"
	MarketClosingATC MarketStatus = "atc"
)

// MarketStatusAt returns the HOSE trading phase at t.
func MarketStatusAt(t time.Time) MarketStatus {
	now := t.In(VietnamLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()

	switch {
	case timeMinutes >= 540 && timeMinutes < 555: // 9:00 - 9:15
		return MarketPreOpen
	case timeMinutes >= 555 && timeMinutes < 690: // 9:15 - 11:30
		return MarketOpen
	case timeMinutes >= 690 && timeMinutes < 780: // 11:30 - 13:00
		return MarketLunchBreak
	case timeMinutes >= 780 && timeMinutes < 870: // 13:00 - 14:30
		return MarketOpen
	case timeMinutes >= 870 && timeMinutes < 885: // 14:30 - 14:45
		return MarketClosingATC
	}
	return MarketClosed
}

// GetMarketStatus returns the current market status.
func GetMarketStatus() MarketStatus {
	return MarketStatusAt(time.Now())
}

// TradingWindow returns the [from, to] calendar window covering the last
// days days, ending today in Vietnam time.
func TradingWindow(days int, now time.Time) (time.Time, time.Time) {
	local := now.In(VietnamLocation)
	to := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, VietnamLocation)
	return to.AddDate(0, 0, -days), to
}
