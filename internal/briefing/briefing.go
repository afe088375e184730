// Package briefing renders indicator bundles into the text that grounds the assistant.
package briefing

import (
	"fmt"
	"strings"

	"vnstock-advisor/internal/analysis/indicators"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/pkg/utils"
)

// HistoryRows is the number of recent sessions listed in the briefing.
const HistoryRows = 10

const dateLayout = "2006-01-02"

// Input is everything the composer reads.
type Input struct {
	Bundle    *indicators.Bundle
	Recent    []models.PriceBar      // trailing RecentWindow bars
	LongRange *indicators.RangeStats // nil when the series is not longer than the recent window
}

// FromSeries computes the bundle and windows of a series.
func FromSeries(series models.PriceSeries) (Input, error) {
	b, err := indicators.Compute(series)
	if err != nil {
		return Input{}, err
	}
	in := Input{
		Bundle: b,
		Recent: series.Tail(indicators.RecentWindow),
	}
	if long, ok := indicators.LongRange(series); ok {
		in.LongRange = &long
	}
	return in, nil
}

// VolumeLabel is the Vietnamese label of a volume level.
func VolumeLabel(l indicators.VolumeLevel) string {
	switch l {
	case indicators.VolumeHigh:
		return "Cao"
	case indicators.VolumeLow:
		return "Thấp"
	case indicators.VolumeNormal:
		return "Bình thường"
	}
	return "Không xác định"
}

// TrendLabel is the Vietnamese label of a trend strength.
func TrendLabel(s indicators.TrendStrength) string {
	switch s {
	case indicators.TrendStrong:
		return "Xu hướng mạnh"
	case indicators.TrendWeak:
		return "Xu hướng yếu"
	case indicators.TrendModerate:
		return "Xu hướng trung bình"
	}
	return "Không đủ dữ liệu"
}

// Compose renders the fixed-section briefing. Output depends only on in.
func Compose(in Input) string {
	b := in.Bundle
	if b == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== DỮ LIỆU KỸ THUẬT: %s ===\n", b.Symbol)
	fmt.Fprintf(&sb, "Phiên gần nhất: %s (%d phiên dữ liệu)\n", b.Latest.Date.Format(dateLayout), b.Bars)

	writePrice(&sb, b)
	writeVolume(&sb, b)
	writeMovingAverages(&sb, b)
	writeTrend(&sb, b)
	writeRange(&sb, fmt.Sprintf("BIÊN ĐỘ %d PHIÊN", b.Range30.Bars), b.Range30)
	if in.LongRange != nil {
		writeRange(&sb, fmt.Sprintf("BIÊN ĐỘ DÀI HẠN (%d PHIÊN)", in.LongRange.Bars), *in.LongRange)
	}
	writeHistory(&sb, in.Recent)

	return sb.String()
}

func writePrice(sb *strings.Builder, b *indicators.Bundle) {
	sb.WriteString("\n[GIÁ]\n")
	fmt.Fprintf(sb, "Giá hiện tại: %s\n", utils.FormatPrice(b.Latest.Close))
	if b.Change != nil && b.PrevClose != nil {
		pct := "n/a"
		if b.ChangePercent != nil {
			pct = utils.FormatPercent(*b.ChangePercent)
		}
		fmt.Fprintf(sb, "Thay đổi: %s (%s) so với phiên trước (%s)\n",
			utils.FormatChange(*b.Change), pct, utils.FormatPrice(*b.PrevClose))
	} else {
		sb.WriteString("Thay đổi: không có phiên trước\n")
	}
	fmt.Fprintf(sb, "Trong phiên: mở cửa %s, cao nhất %s, thấp nhất %s, %s (%s)\n",
		utils.FormatPrice(b.Latest.Open),
		utils.FormatPrice(b.Latest.High),
		utils.FormatPrice(b.Latest.Low),
		utils.FormatChange(b.IntradayChange),
		utils.FormatPercent(b.IntradayChangePercent))
}

func writeVolume(sb *strings.Builder, b *indicators.Bundle) {
	sb.WriteString("\n[KHỐI LƯỢNG]\n")
	fmt.Fprintf(sb, "Khối lượng: %s\n", utils.FormatQuantity(b.Latest.Volume))
	fmt.Fprintf(sb, "Trung bình %d phiên: %s\n", indicators.VolumeWindow, utils.FormatVolume(b.AvgVolume20))
	if b.VolumeRatio != nil {
		fmt.Fprintf(sb, "So với trung bình: %s%% (%s)\n", utils.FormatRatio(*b.VolumeRatio), VolumeLabel(b.VolumeLevel()))
	} else {
		fmt.Fprintf(sb, "So với trung bình: không xác định (%s)\n", VolumeLabel(b.VolumeLevel()))
	}
}

func writeMovingAverages(sb *strings.Builder, b *indicators.Bundle) {
	sb.WriteString("\n[ĐƯỜNG TRUNG BÌNH ĐỘNG]\n")
	for _, ma := range b.MovingAverages {
		if !ma.Available() {
			fmt.Fprintf(sb, "MA%d: không đủ dữ liệu\n", ma.Window)
			continue
		}
		position := "TRÊN"
		if b.Latest.Close < *ma.Value {
			position = "DƯỚI"
		}
		offset := "n/a"
		if *ma.Value != 0 {
			offset = utils.FormatPercent((b.Latest.Close / *ma.Value - 1) * 100)
		}
		fmt.Fprintf(sb, "MA%d: %s, giá %s MA%d (%s)\n",
			ma.Window, utils.FormatPrice(*ma.Value), position, ma.Window, offset)
	}
}

func writeTrend(sb *strings.Builder, b *indicators.Bundle) {
	sb.WriteString("\n[SỨC MẠNH XU HƯỚNG]\n")
	if b.ADX != nil {
		fmt.Fprintf(sb, "ADX(%d): %s (%s)\n", indicators.ADXPeriod, utils.FormatRatio(*b.ADX), TrendLabel(b.TrendStrength()))
	} else {
		fmt.Fprintf(sb, "ADX(%d): %s\n", indicators.ADXPeriod, TrendLabel(b.TrendStrength()))
	}
}

func writeRange(sb *strings.Builder, title string, r indicators.RangeStats) {
	fmt.Fprintf(sb, "\n[%s]\n", title)
	fmt.Fprintf(sb, "Cao nhất: %s (%s)\n", utils.FormatPrice(r.High), r.HighDate.Format(dateLayout))
	fmt.Fprintf(sb, "Thấp nhất: %s (%s)\n", utils.FormatPrice(r.Low), r.LowDate.Format(dateLayout))
	fmt.Fprintf(sb, "Biên độ: %s%%\n", utils.FormatRatio(r.RangePercent))
	fmt.Fprintf(sb, "Giá đóng cửa trung bình: %s\n", utils.FormatPrice(r.AvgClose))
	fmt.Fprintf(sb, "Vị trí giá trong biên độ: %s%%\n", utils.FormatRatio(r.Position))
}

func writeHistory(sb *strings.Builder, recent []models.PriceBar) {
	if len(recent) == 0 {
		return
	}
	rows := recent
	if len(rows) > HistoryRows {
		rows = rows[len(rows)-HistoryRows:]
	}
	fmt.Fprintf(sb, "\n[%d PHIÊN GẦN NHẤT]\n", len(rows))
	sb.WriteString("Ngày | Mở | Cao | Thấp | Đóng | Khối lượng\n")
	for _, bar := range rows {
		fmt.Fprintf(sb, "%s | %s | %s | %s | %s | %s\n",
			bar.Date.Format(dateLayout),
			utils.FormatPrice(bar.Open),
			utils.FormatPrice(bar.High),
			utils.FormatPrice(bar.Low),
			utils.FormatPrice(bar.Close),
			utils.FormatQuantity(bar.Volume))
	}
}
