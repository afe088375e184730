package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"vnstock-advisor/internal/agents"
	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/marketdata"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/resilience"
	"vnstock-advisor/internal/session"
)

type stubProvider struct{}

func (stubProvider) Source() models.Source { return models.SourceTCBS }

func (stubProvider) History(ctx context.Context, req marketdata.HistoryRequest) (models.PriceSeries, error) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 40)
	for i := range bars {
		c := 50 + float64(i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 2000}
	}
	return models.PriceSeries{Symbol: req.Symbol, Source: models.SourceTCBS, Bars: bars}, nil
}

func (stubProvider) CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	return &models.CompanyOverview{Symbol: symbol, Attributes: []models.Attribute{{Key: "exchange", Label: "Sàn", Value: "HOSE"}}}, nil
}

func (stubProvider) Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error) {
	return &models.FinancialStatement{Symbol: symbol, Kind: kind, Period: period, Lang: lang, Rows: []models.FinancialRow{{Year: 2024, Quarter: 1}}}, nil
}

type stubLLM struct{}

func (stubLLM) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return "▸ Khuyến Nghị Vị Thế: MUA", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *dashboard.Dispatcher) {
	t.Helper()
	d := dashboard.NewDispatcher(dashboard.Deps{
		State:     session.New(session.Selection{Symbol: "VNM", Source: models.SourceTCBS, Days: 90}),
		Registry:  marketdata.NewRegistry(stubProvider{}),
		Knowledge: knowledge.NewStore(t.TempDir(), zerolog.Nop()),
		NewClient: func(string) agents.LLMClient { return stubLLM{} },
		Logger:    zerolog.Nop(),
	}, dashboard.Options{ScanSymbols: []string{"VNM"}})

	srv := httptest.NewServer(NewRouter(Config{Dispatcher: d, Logger: zerolog.Nop()}))
	t.Cleanup(srv.Close)
	return srv, d
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthAndPopular(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp := do(t, http.MethodGet, srv.URL+"/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/tickers/popular", "")
	var popular []models.PopularTicker
	decode(t, resp, &popular)
	if len(popular) != len(models.PopularTickers) {
		t.Errorf("popular = %d tickers", len(popular))
	}
}

func TestTickerView(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/tickers/hpg?days=60", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var view dashboard.TickerView
	decode(t, resp, &view)
	if view.Symbol != "HPG" || !view.Active || view.Selection.Days != 60 {
		t.Errorf("view = %+v", view.Selection)
	}
	if len(view.History) != dashboard.HistoryRows || view.Indicators == nil {
		t.Errorf("history = %d rows", len(view.History))
	}
}

func TestTickerView_BadInput(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name string
		url  string
	}{
		{"days not a number", "/api/tickers/VNM?days=abc"},
		{"days out of range", "/api/tickers/VNM?days=2"},
		{"unsupported source", "/api/tickers/VNM?source=MSN"},
		{"bad symbol", "/api/tickers/V-N-M-123456"},
		{"bad statement", "/api/tickers/VNM/finance/cashflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, srv.URL+tt.url, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestCompanyAndFinance(t *testing.T) {
	srv, _ := newTestServer(t)

	var company SectionResponse
	decode(t, do(t, http.MethodGet, srv.URL+"/api/tickers/VNM/company", ""), &company)
	if company.Data == nil || company.Warning != "" {
		t.Errorf("company = %+v", company)
	}

	var finance struct {
		Data    models.FinancialStatement `json:"data"`
		Warning string                    `json:"warning"`
	}
	decode(t, do(t, http.MethodGet, srv.URL+"/api/tickers/VNM/finance/income?period=year", ""), &finance)
	if finance.Data.Kind != models.StatementIncome || finance.Data.Period != "year" || finance.Data.Lang != "vi" {
		t.Errorf("finance = %+v", finance.Data)
	}
}

func TestChatFlow(t *testing.T) {
	srv, d := newTestServer(t)
	url := srv.URL + "/api/tickers/VNM/chat"

	if resp := do(t, http.MethodPut, srv.URL+"/api/credential", `{"key":"sk-test"}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("credential status = %d", resp.StatusCode)
	}

	resp := do(t, http.MethodPost, url, `{"question":"Có nên mua không?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask status = %d", resp.StatusCode)
	}
	var chat ChatResponse
	decode(t, resp, &chat)
	if len(chat.Turns) != 2 || !chat.CanAsk || chat.Turns[1].Role != models.RoleAssistant {
		t.Errorf("chat = %+v", chat)
	}

	if _, err := d.State().Conversation().AppendUser("VNM", "pending"); err != nil {
		t.Fatal(err)
	}
	if resp := do(t, http.MethodPost, url, `{"question":"again"}`); resp.StatusCode != http.StatusConflict {
		t.Errorf("ask while awaiting status = %d, want 409", resp.StatusCode)
	}

	if resp := do(t, http.MethodDelete, url, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("clear status = %d", resp.StatusCode)
	}
	decode(t, do(t, http.MethodGet, url, ""), &chat)
	if len(chat.Turns) != 0 || !chat.CanAsk {
		t.Errorf("chat after clear = %+v", chat)
	}

	if resp := do(t, http.MethodPost, url, `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d", resp.StatusCode)
	}
}

func TestScan(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp := do(t, http.MethodGet, srv.URL+"/api/scan/last", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("last scan before any run = %d", resp.StatusCode)
	}

	do(t, http.MethodPut, srv.URL+"/api/credential", `{"key":"sk"}`)
	resp := do(t, http.MethodPost, srv.URL+"/api/scan", `{"symbols":["VNM","FPT"]}`)
	var report models.ScanReport
	decode(t, resp, &report)
	if report.Analyzed != 2 || len(report.Recommended) != 2 {
		t.Errorf("report = %+v", report)
	}

	if resp := do(t, http.MethodGet, srv.URL+"/api/scan/last", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("last scan status = %d", resp.StatusCode)
	}
}

func TestHealthReportsBreakers(t *testing.T) {
	breakers := resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})
	breakers.Get("VCI")
	tcbs := breakers.Get("TCBS")

	srv := httptest.NewServer(NewRouter(Config{Logger: zerolog.Nop(), Breakers: breakers}))
	defer srv.Close()

	var health HealthResponse
	decode(t, do(t, http.MethodGet, srv.URL+"/health", ""), &health)
	if health.Status != "ok" || len(health.Upstreams) != 2 {
		t.Errorf("health = %+v", health)
	}

	resilience.Execute(tcbs, context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("upstream down")
	})
	decode(t, do(t, http.MethodGet, srv.URL+"/health", ""), &health)
	if health.Status != "degraded" || health.Upstreams[0].State != resilience.CircuitOpen {
		t.Errorf("health after failure = %+v", health)
	}
}

func TestScan_EmptyBodyOfUnknownLength(t *testing.T) {
	srv, d := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/api/credential", `{"key":"sk"}`)
	router := NewRouter(Config{Dispatcher: d, Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var report models.ScanReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Analyzed != 1 {
		t.Errorf("empty body should scan the configured list, report = %+v", report)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

func TestScanProgress(t *testing.T) {
	srv, _ := newTestServer(t)

	var status dashboard.ScanStatus
	decode(t, do(t, http.MethodGet, srv.URL+"/api/scan/progress", ""), &status)
	if status.Running || status.Last != nil {
		t.Errorf("before any scan = %+v", status)
	}

	do(t, http.MethodPut, srv.URL+"/api/credential", `{"key":"sk"}`)
	do(t, http.MethodPost, srv.URL+"/api/scan", `{"symbols":["VNM","FPT","HPG"]}`)

	decode(t, do(t, http.MethodGet, srv.URL+"/api/scan/progress", ""), &status)
	if status.Running || status.Last == nil || status.Last.Done != 3 || status.Last.Total != 3 || status.Last.Symbol != "HPG" {
		t.Errorf("after scan = %+v", status)
	}
}

func TestResetUpstreams(t *testing.T) {
	breakers := resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})
	tcbs := breakers.Get("TCBS")
	resilience.Execute(tcbs, context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("upstream down")
	})

	srv := httptest.NewServer(NewRouter(Config{Logger: zerolog.Nop(), Breakers: breakers}))
	defer srv.Close()

	var health HealthResponse
	decode(t, do(t, http.MethodPost, srv.URL+"/api/upstreams/reset", ""), &health)
	if health.Status != "ok" || tcbs.State() != resilience.CircuitClosed {
		t.Errorf("after reset = %+v, state %s", health, tcbs.State())
	}
}
