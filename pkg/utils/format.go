// Package utils provides shared utility functions.
package utils

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatPrice formats a price with thousands separators and two decimals.
func FormatPrice(value float64) string {
	return humanize.FormatFloat("#,###.##", value)
}

// FormatVolume formats a share count with thousands separators.
func FormatVolume(value float64) string {
	return humanize.FormatFloat("#,###.", value)
}

// FormatQuantity formats an integer quantity with thousands separators.
func FormatQuantity(qty int64) string {
	return humanize.Comma(qty)
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

// FormatChange formats an absolute price change with sign.
func FormatChange(value float64) string {
	if value < 0 {
		return "-" + FormatPrice(-value)
	}
	return "+" + FormatPrice(value)
}

// FormatRatio formats a unitless indicator value with two decimals.
func FormatRatio(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

// FormatCompact formats large VND amounts in tỷ (1e9) or triệu (1e6).
func FormatCompact(amount float64) string {
	absAmount := amount
	if absAmount < 0 {
		absAmount = -absAmount
	}

	if absAmount >= 1e9 {
		return humanize.FormatFloat("#,###.##", amount/1e9) + " tỷ"
	} else if absAmount >= 1e6 {
		return humanize.FormatFloat("#,###.##", amount/1e6) + " triệu"
	}
	return FormatPrice(amount)
}
