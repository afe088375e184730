package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vnstock-advisor/internal/analysis/indicators"
	"vnstock-advisor/internal/briefing"
	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/session"
	"vnstock-advisor/pkg/utils"
)

// statementColumns is how many statement fields a terminal table shows.
const statementColumns = 12

func newQuoteCmd(app *App) *cobra.Command {
	var (
		days   int
		source string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "quote [symbol]",
		Short: "Show price history and indicators of a ticker",
		Example: `  vnadvisor quote VNM
  vnadvisor quote FPT --days 180 --source VCI
  vnadvisor quote --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if list || len(args) == 0 {
				return showPopular(output)
			}

			err := app.Dispatcher.Dispatch(cmd.Context(), dashboard.SelectTicker{
				Symbol: args[0],
				Source: models.Source(source),
				Days:   days,
			})
			if err != nil {
				return err
			}

			view := app.Dispatcher.Render(args[0])
			if output.IsJSON() {
				return output.JSON(view)
			}
			renderQuote(output, view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "history window in calendar days (30-1000, default 90)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "data source: TCBS or VCI")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list popular tickers")

	return cmd
}

func showPopular(output *Output) error {
	if output.IsJSON() {
		return output.JSON(models.PopularTickers)
	}
	output.Bold("Mã phổ biến")
	table := NewTable(output, "Mã", "Doanh nghiệp")
	for _, t := range models.PopularTickers {
		table.AddRow(t.Symbol, t.Name)
	}
	table.Render()
	return nil
}

func renderQuote(output *Output, view dashboard.TickerView) {
	output.Bold("📊 %s · %s · %d ngày", view.Symbol, view.Selection.Source, view.Selection.Days)
	output.Dim("Thị trường: %s", utils.GetMarketStatus())
	output.Println()

	if warning, ok := view.Warnings[session.SectionPrice]; ok {
		output.Warning("⚠️  %s", warning)
		return
	}
	b := view.Indicators
	if b == nil {
		output.Warning("⚠️  Không có dữ liệu giá!")
		return
	}

	latest := b.Latest
	change := fmt.Sprintf("%s (%s)", utils.FormatChange(b.IntradayChange), utils.FormatPercent(b.IntradayChangePercent))
	metrics := NewTable(output, "Giá đóng cửa", "Cao nhất", "Thấp nhất", "Khối lượng", "Thay đổi")
	metrics.AddRow(
		utils.FormatPrice(latest.Close),
		utils.FormatPrice(latest.High),
		utils.FormatPrice(latest.Low),
		utils.FormatQuantity(latest.Volume),
		output.Signed(b.IntradayChange, change),
	)
	metrics.Render()
	output.Println()

	renderIndicators(output, b)
	output.Println()

	output.Bold("%d phiên gần nhất", len(view.History))
	history := NewTable(output, "Ngày", "Mở cửa", "Cao", "Thấp", "Đóng cửa", "Khối lượng")
	for _, bar := range view.History {
		history.AddRow(
			FormatDate(bar.Date),
			utils.FormatPrice(bar.Open),
			utils.FormatPrice(bar.High),
			utils.FormatPrice(bar.Low),
			utils.FormatPrice(bar.Close),
			utils.FormatQuantity(bar.Volume),
		)
	}
	history.Render()
}

func renderIndicators(output *Output, b *indicators.Bundle) {
	output.Bold("Chỉ báo kỹ thuật")
	for _, ma := range b.MovingAverages {
		if !ma.Available() {
			output.Printf("  MA%-4d %s\n", ma.Window, output.DimText("không đủ dữ liệu"))
			continue
		}
		diff := (b.Latest.Close - *ma.Value) / *ma.Value * 100
		output.Printf("  MA%-4d %s  %s\n", ma.Window, PadLeft(utils.FormatPrice(*ma.Value), 10), output.Signed(diff, utils.FormatPercent(diff)))
	}

	ratio := FormatOptional(b.VolumeRatio, func(v float64) string { return fmt.Sprintf("%.0f%%", v) })
	output.Printf("  Khối lượng / TB20: %s (%s)\n", ratio, briefing.VolumeLabel(b.VolumeLevel()))
	adx := FormatOptional(b.ADX, utils.FormatRatio)
	output.Printf("  ADX(14): %s (%s)\n", adx, briefing.TrendLabel(b.TrendStrength()))
	r := b.Range30
	output.Printf("  Biên độ %d phiên: %s - %s (vị trí %.0f%%)\n", r.Bars, utils.FormatPrice(r.Low), utils.FormatPrice(r.High), r.Position)
}

func newCompanyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "company <symbol>",
		Short: "Show the company overview of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Dispatcher.Dispatch(cmd.Context(), dashboard.LoadCompany{Symbol: args[0]}); err != nil {
				return err
			}

			view := app.Dispatcher.Render(args[0])
			if output.IsJSON() {
				return output.JSON(view.Company)
			}
			if warning, ok := view.Warnings[session.SectionCompany]; ok {
				output.Warning("⚠️  %s", warning)
				return nil
			}

			output.Bold("🏢 Thông tin công ty - %s", view.Symbol)
			table := NewTable(output, "Thông tin", "Giá trị")
			for _, a := range view.Company.Attributes {
				table.AddRow(a.Label, TruncateString(a.Value, 80))
			}
			table.Render()
			return nil
		},
	}
}

func newFinanceCmd(app *App) *cobra.Command {
	var (
		statement string
		period    string
		lang      string
	)

	cmd := &cobra.Command{
		Use:   "finance <symbol>",
		Short: "Show a financial statement of a ticker",
		Example: `  vnadvisor finance VNM
  vnadvisor finance FPT --statement ratio --period year`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			kind, ok := models.ParseStatementKind(strings.ToLower(statement))
			if !ok {
				return fmt.Errorf("unknown statement %q (balance, income, ratio)", statement)
			}

			err := app.Dispatcher.Dispatch(cmd.Context(), dashboard.LoadFinancials{
				Symbol: args[0],
				Kind:   kind,
				Period: period,
				Lang:   lang,
			})
			if err != nil {
				return err
			}

			view := app.Dispatcher.Render(args[0])
			st := view.Statements[kind]
			if output.IsJSON() {
				return output.JSON(st)
			}
			section := session.SectionFinance
			if kind == models.StatementRatio {
				section = session.SectionRatio
			}
			if warning, ok := view.Warnings[section]; ok {
				output.Warning("⚠️  %s", warning)
				return nil
			}
			renderStatement(output, st)
			return nil
		},
	}

	cmd.Flags().StringVar(&statement, "statement", "income", "statement: balance, income, ratio")
	cmd.Flags().StringVar(&period, "period", "quarter", "period: quarter or year")
	cmd.Flags().StringVar(&lang, "lang", "vi", "labels: vi or en")

	return cmd
}

// renderStatement prints one field per line and one period per column.
func renderStatement(output *Output, st *models.FinancialStatement) {
	output.Bold("💰 %s - %s (%s)", st.Symbol, st.Kind, st.Period)
	if len(st.Rows) == 0 {
		output.Dim("Không có dữ liệu.")
		return
	}

	headers := []string{"Chỉ tiêu"}
	for _, row := range st.Rows {
		headers = append(headers, row.PeriodLabel())
	}
	table := NewTable(output, headers...)

	columns := st.Columns
	if len(columns) > statementColumns {
		columns = columns[:statementColumns]
	}
	for _, col := range columns {
		cells := []string{TruncateString(col.Label, 32)}
		for _, row := range st.Rows {
			v, ok := row.Values[col.Key]
			if !ok {
				cells = append(cells, "-")
				continue
			}
			f, _ := v.Float64()
			cells = append(cells, utils.FormatPrice(f))
		}
		table.AddRow(cells...)
	}
	table.Render()
	if len(st.Columns) > len(columns) {
		output.Dim("... %d chỉ tiêu khác (dùng --json để xem đầy đủ)", len(st.Columns)-len(columns))
	}
}
