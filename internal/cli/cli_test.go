package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vnstock-advisor/internal/agents"
	"vnstock-advisor/internal/config"
	"vnstock-advisor/internal/dashboard"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/marketdata"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/session"
	"vnstock-advisor/internal/store"
)

type stubProvider struct{}

func (stubProvider) Source() models.Source { return models.SourceTCBS }

func (stubProvider) History(ctx context.Context, req marketdata.HistoryRequest) (models.PriceSeries, error) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 30)
	for i := range bars {
		c := 70 + float64(i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1500000}
	}
	return models.PriceSeries{Symbol: req.Symbol, Source: models.SourceTCBS, Bars: bars}, nil
}

func (stubProvider) CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	return &models.CompanyOverview{Symbol: symbol, Attributes: []models.Attribute{{Key: "exchange", Label: "Sàn niêm yết", Value: "HOSE"}}}, nil
}

func (stubProvider) Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error) {
	return nil, apperrors.NewDataError("statement", symbol, "no data", apperrors.ErrDataUnavailable)
}

type stubLLM struct{ reply string }

func (s stubLLM) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return s.reply, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Dir: dir}
	cfg.Scan.Symbols = []string{"VNM", "FPT"}

	dataStore, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { dataStore.Close() })

	d := dashboard.NewDispatcher(dashboard.Deps{
		State:       session.New(session.Selection{Symbol: "VNM", Source: models.SourceTCBS, Days: 90}),
		Registry:    marketdata.NewRegistry(stubProvider{}),
		Knowledge:   knowledge.NewStore(dir, zerolog.Nop()),
		Credentials: store.NewCredentialStore(dataStore),
		NewClient:   func(string) agents.LLMClient { return stubLLM{reply: "Xu hướng tăng.\n▸ Khuyến Nghị Vị Thế: MUA"} },
		Logger:      zerolog.Nop(),
	}, dashboard.Options{ScanSymbols: cfg.Scan.Symbols})

	return &App{Config: cfg, Logger: zerolog.Nop(), Store: dataStore, Dispatcher: d, credentialOrigin: CredentialNone}
}

func run(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	app := newTestApp(t)
	out, err := run(t, app, "", "quote", "vnm", "--days", "60")
	if err != nil {
		t.Fatalf("quote error = %v", err)
	}
	for _, want := range []string{"VNM", "60 ngày", "Giá đóng cửa", "99.00", "MA20", "MA50", "không đủ dữ liệu", "20 phiên gần nhất"} {
		if !strings.Contains(out, want) {
			t.Errorf("quote output missing %q:\n%s", want, out)
		}
	}
}

func TestQuoteCommand_List(t *testing.T) {
	out, err := run(t, newTestApp(t), "", "quote", "--list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Vinamilk") || !strings.Contains(out, "Masan Group") {
		t.Errorf("popular list output:\n%s", out)
	}
}

func TestQuoteCommand_JSON(t *testing.T) {
	out, err := run(t, newTestApp(t), "", "quote", "FPT", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var view dashboard.TickerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if view.Symbol != "FPT" || len(view.History) != dashboard.HistoryRows {
		t.Errorf("view = %s, %d rows", view.Symbol, len(view.History))
	}
}

func TestCompanyAndFinanceCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "", "company", "VNM")
	if err != nil || !strings.Contains(out, "Sàn niêm yết") {
		t.Errorf("company output (%v):\n%s", err, out)
	}

	out, err = run(t, app, "", "finance", "VNM", "--statement", "balance")
	if err != nil || !strings.Contains(out, "⚠️") {
		t.Errorf("finance should show a section warning (%v):\n%s", err, out)
	}

	if _, err := run(t, app, "", "finance", "VNM", "--statement", "cashflow"); err == nil {
		t.Errorf("unknown statement should fail")
	}
}

func TestChatCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "", "chat", "VNM", "-q", "Có nên mua?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "API key") {
		t.Errorf("missing credential diagnostic:\n%s", out)
	}

	if _, err := run(t, app, "", "credential", "set", "sk-abcdef1234"); err != nil {
		t.Fatal(err)
	}
	stdin := "Phân tích VNM\n/history\n/switch FPT\n/clear\n/exit\n"
	out, err = run(t, app, stdin, "chat", "VNM")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Khuyến Nghị Vị Thế: MUA", "Bạn:", "Đã chuyển sang FPT", "Đã xóa hội thoại của FPT"} {
		if !strings.Contains(out, want) {
			t.Errorf("chat output missing %q:\n%s", want, out)
		}
	}
	if n := len(app.Dispatcher.Render("VNM").Turns); n != 4 {
		t.Errorf("VNM turns = %d, want 4", n)
	}
}

func TestCredentialCommands(t *testing.T) {
	app := newTestApp(t)

	if _, err := run(t, app, "sk-from-stdin-9876\n", "credential", "set"); err != nil {
		t.Fatal(err)
	}
	out, _ := run(t, app, "", "credential", "show")
	if !strings.Contains(out, "9876") || strings.Contains(out, "sk-from") {
		t.Errorf("show should mask the key:\n%s", out)
	}

	saved, ok, err := store.NewCredentialStore(app.Store).Get(context.Background())
	if err != nil || !ok || saved != "sk-from-stdin-9876" {
		t.Errorf("persisted = %q, %v, %v", saved, ok, err)
	}

	if _, err := run(t, app, "", "credential", "clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, app, "", "credential", "show")
	if !strings.Contains(out, "No API key") {
		t.Errorf("after clear:\n%s", out)
	}
}

func TestScanAndWatchlistCommands(t *testing.T) {
	app := newTestApp(t)
	run(t, app, "", "credential", "set", "sk-test")

	if _, err := run(t, app, "", "watchlist", "add", "hpg", "vcb", "--name", "banks"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, app, "", "watchlist", "list")
	if err != nil || !strings.Contains(out, "HPG VCB") {
		t.Errorf("watchlist list (%v):\n%s", err, out)
	}

	out, err = run(t, app, "", "scan", "--watchlist", "banks")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2/2") || !strings.Contains(out, "HPG") {
		t.Errorf("scan output:\n%s", out)
	}

	if _, err := run(t, app, "", "scan", "--watchlist", "empty"); err == nil {
		t.Errorf("empty watchlist should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, newTestApp(t), "", "version")
	if err != nil || !strings.Contains(out, Version) {
		t.Errorf("version output (%v): %s", err, out)
	}
}

func TestConfigShow_OmitsAPIKey(t *testing.T) {
	app := newTestApp(t)
	app.Config.Credentials.OpenAIKey = "sk-env-secret-4321"

	for _, args := range [][]string{{"config", "show", "--json"}, {"config", "show"}} {
		out, err := run(t, app, "", args...)
		if err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
		if strings.Contains(out, "sk-env-secret") || strings.Contains(out, "OpenAIKey") {
			t.Errorf("%v leaked the credential:\n%s", args, out)
		}
	}
}
