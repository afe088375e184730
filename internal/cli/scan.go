package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/scan"
	"vnstock-advisor/internal/store"
	"vnstock-advisor/pkg/utils"
)

func newScanCmd(app *App) *cobra.Command {
	var watchlist string

	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Scan tickers for Chim Cút buy recommendations",
		Long: `Asks the assistant to analyze each ticker with the Chim Cút method and lists
the tickers it recommends buying. Without symbols the configured scan list is used.
Ctrl-C stops the scan after the current ticker.`,
		Example: `  vnadvisor scan
  vnadvisor scan VNM FPT HPG
  vnadvisor scan --watchlist banks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := args
			if watchlist != "" {
				if err := requireStore(app); err != nil {
					return err
				}
				list, err := app.Store.GetWatchlist(cmd.Context(), watchlist)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return fmt.Errorf("watchlist %q is empty", watchlist)
				}
				symbols = list
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt)
			defer stop()

			progress := func(p scan.Progress) {
				if !output.IsJSON() {
					output.Progress(p.Done, p.Total, fmt.Sprintf("Đang phân tích %-6s", p.Symbol))
				}
			}
			if err := app.Dispatcher.Dispatch(ctx, dashboard.RunScan{Symbols: symbols, Progress: progress}); err != nil {
				return err
			}

			report := app.Dispatcher.LastScan()
			if output.IsJSON() {
				return output.JSON(report)
			}
			output.Println()
			output.Bold("🔍 Kết quả quét: %d/%d mã được phân tích trong %s", report.Analyzed, len(report.Symbols), FormatDuration(report.Finished.Sub(report.Started)))

			if len(report.Recommended) == 0 {
				output.Info("Không có mã nào được khuyến nghị MUA.")
			} else {
				table := NewTable(output, "Mã", "Giá", "Khuyến nghị")
				for _, r := range report.Recommended {
					table.AddRow(r.Symbol, utils.FormatPrice(r.Price), output.Recommendation(true))
				}
				table.Render()
			}

			if len(report.Failures) > 0 {
				output.Println()
				output.Warning("⚠️  %d mã lỗi:", len(report.Failures))
				for _, f := range report.Failures {
					output.Printf("  %s: %s\n", f.Symbol, TruncateString(firstLine(f.Reason), 100))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&watchlist, "watchlist", "w", "", "scan the symbols of a saved watchlist")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newWatchlistCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage named ticker lists used by scan",
	}
	cmd.PersistentFlags().StringVarP(&name, "name", "n", store.DefaultWatchlist, "watchlist name")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbols...>",
		Short: "Add tickers to a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			for _, s := range args {
				if err := app.Store.AddToWatchlist(cmd.Context(), s, name); err != nil {
					return err
				}
			}
			output.Success("✓ Đã thêm %s vào '%s'", strings.ToUpper(strings.Join(args, ", ")), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbols...>",
		Short: "Remove tickers from a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			for _, s := range args {
				if err := app.Store.RemoveFromWatchlist(cmd.Context(), s, name); err != nil {
					return err
				}
			}
			output.Success("✓ Đã xóa %s khỏi '%s'", strings.ToUpper(strings.Join(args, ", ")), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all watchlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			lists, err := app.Store.GetAllWatchlists(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(lists)
			}
			if len(lists) == 0 {
				output.Dim("Chưa có danh sách nào.")
				return nil
			}
			table := NewTable(output, "Danh sách", "Mã")
			names := make([]string, 0, len(lists))
			for list := range lists {
				names = append(names, list)
			}
			sort.Strings(names)
			for _, list := range names {
				table.AddRow(list, strings.Join(lists[list], " "))
			}
			table.Render()
			return nil
		},
	})

	return cmd
}

func requireStore(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("store unavailable at %s", app.Config.DatabasePath())
	}
	return nil
}
