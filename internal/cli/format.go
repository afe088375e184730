package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vnstock-advisor/pkg/utils"
)

// FormatDate formats a trading day.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateTime formats a timestamp in Vietnam time.
func FormatDateTime(t time.Time) string {
	return t.In(utils.VietnamLocation).Format("02/01/2006 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatOptional formats a possibly unavailable value.
func FormatOptional(v *float64, format func(float64) string) string {
	if v == nil {
		return "N/A"
	}
	return format(*v)
}

// MaskKey hides all but the last four characters of a credential.
func MaskKey(key string) string {
	n := utf8.RuneCountInString(key)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	runes := []rune(key)
	return strings.Repeat("*", n-4) + string(runes[n-4:])
}

// TruncateString truncates a string to max runes with ellipsis.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PadRight pads a string to the right to a display width.
func PadRight(s string, length int) string {
	w := displayWidth(s)
	if w >= length {
		return s
	}
	return s + strings.Repeat(" ", length-w)
}

// PadLeft pads a string to the left to a display width.
func PadLeft(s string, length int) string {
	w := displayWidth(s)
	if w >= length {
		return s
	}
	return strings.Repeat(" ", length-w) + s
}
