package cli

import (
	"bufio"
	"context"
	"strings"

	"github.com/spf13/cobra"

	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/recommend"
)

const chatHelp = `Lệnh: /switch <mã> đổi mã, /clear xóa hội thoại của mã, /history xem lại, /exit thoát`

func newChatCmd(app *App) *cobra.Command {
	var question string

	cmd := &cobra.Command{
		Use:   "chat [symbol]",
		Short: "Ask the assistant about a ticker",
		Long: `Ask questions about a ticker. Answers are grounded in the ticker's technical
indicators and, when the question mentions the Chim Cút method, in the method documents.

Without --question an interactive session starts. ` + chatHelp,
		Example: `  vnadvisor chat VNM
  vnadvisor chat FPT -q "Phân tích FPT theo phương pháp chim cút"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := "VNM"
			if len(args) == 1 {
				symbol = args[0]
			}

			if question != "" {
				return ask(contextOf(cmd), app, output, symbol, question)
			}
			return chatLoop(cmd, app, output, symbol)
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "ask one question and exit")
	return cmd
}

func chatLoop(cmd *cobra.Command, app *App, output *Output, symbol string) error {
	ctx := contextOf(cmd)
	if err := app.Dispatcher.Dispatch(ctx, dashboard.SelectTicker{Symbol: symbol}); err != nil {
		return err
	}
	symbol = app.Dispatcher.Render(symbol).Symbol

	output.Bold("💬 Trợ lý phân tích - %s", symbol)
	output.Dim(chatHelp)
	if !app.Dispatcher.Render(symbol).HasCredential {
		output.Warning("⚠️  Chưa có API key. Dùng 'vnadvisor credential set' để lưu key.")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		output.Printf("%s> ", output.Cyan(symbol))
		if !scanner.Scan() {
			output.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			fields := strings.Fields(line)
			switch fields[0] {
			case "/exit", "/quit":
				return nil
			case "/clear":
				if err := app.Dispatcher.Dispatch(ctx, dashboard.ClearHistory{Symbol: symbol}); err != nil {
					output.Error("%v", err)
					continue
				}
				output.Success("✓ Đã xóa hội thoại của %s", symbol)
			case "/switch":
				if len(fields) < 2 {
					output.Warning("Dùng: /switch <mã>")
					continue
				}
				if err := app.Dispatcher.Dispatch(ctx, dashboard.SelectTicker{Symbol: fields[1]}); err != nil {
					output.Error("%v", err)
					continue
				}
				symbol = app.Dispatcher.Render(fields[1]).Symbol
				output.Success("✓ Đã chuyển sang %s (%d tin nhắn)", symbol, len(app.Dispatcher.Render(symbol).Turns))
			case "/history":
				renderTurns(output, app.Dispatcher.Render(symbol).Turns)
			default:
				output.Dim(chatHelp)
			}
			continue
		}

		if err := ask(ctx, app, output, symbol, line); err != nil {
			output.Error("%v", err)
		}
	}
}

// ask sends one question and prints the answer it produced.
func ask(ctx context.Context, app *App, output *Output, symbol, question string) error {
	if err := app.Dispatcher.Dispatch(ctx, dashboard.AskQuestion{Symbol: symbol, Question: question}); err != nil {
		return err
	}

	view := app.Dispatcher.Render(symbol)
	if n := len(view.Turns); n > 0 {
		if output.IsJSON() {
			return output.JSON(view.Turns[n-1])
		}
		renderAnswer(output, view.Turns[n-1])
	}
	return nil
}

func renderAnswer(output *Output, turn models.Turn) {
	if turn.Failed {
		output.Warning("%s", turn.Content)
		return
	}
	output.Println(turn.Content)
	if recommend.IsBuy(turn.Content) {
		output.Println(output.Recommendation(true))
	}
	output.Println()
}

func renderTurns(output *Output, turns []models.Turn) {
	if len(turns) == 0 {
		output.Dim("Chưa có hội thoại.")
		return
	}
	for _, t := range turns {
		stamp := output.DimText(FormatDateTime(t.Timestamp))
		if t.Role == models.RoleUser {
			output.Printf("%s %s %s\n", stamp, output.Cyan("Bạn:"), t.Content)
			continue
		}
		output.Printf("%s %s\n", stamp, output.BoldText("Trợ lý:"))
		renderAnswer(output, t)
	}
}
