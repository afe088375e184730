package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"vnstock-advisor/internal/conversation"
	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/resilience"
	"vnstock-advisor/internal/session"
	"vnstock-advisor/pkg/utils"
)

type handler struct {
	d        *dashboard.Dispatcher
	breakers *resilience.CircuitBreakerRegistry
	logger   zerolog.Logger
}

// HealthResponse reports liveness and the state of each upstream source.
type HealthResponse struct {
	Status    string                           `json:"status"`
	Upstreams []resilience.CircuitBreakerStats `json:"upstreams,omitempty"`
}

// SectionResponse pairs one dashboard section with its warning.
type SectionResponse struct {
	Data    interface{} `json:"data"`
	Warning string      `json:"warning,omitempty"`
}

// ChatResponse is the conversation of one ticker.
type ChatResponse struct {
	Symbol  string             `json:"symbol"`
	Turns   []models.Turn      `json:"turns"`
	State   conversation.State `json:"state"`
	CanAsk  bool               `json:"can_ask"`
	Warning string             `json:"warning,omitempty"`
}

// dispatch runs cmd and then read within the same pass, so the response
// reflects this request and not a later one.
func (h *handler) dispatch(w http.ResponseWriter, r *http.Request, cmd dashboard.Command, read func()) bool {
	if err := h.d.DispatchThen(r.Context(), cmd, read); err != nil {
		status, code := statusFor(err)
		writeError(w, r, h.logger, status, code, err.Error())
		return false
	}
	return true
}

// health
// GET /health
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.healthResponse())
}

func (h *handler) healthResponse() HealthResponse {
	resp := HealthResponse{Status: "ok"}
	if h.breakers != nil {
		resp.Upstreams = h.breakers.AllStats()
		for _, s := range resp.Upstreams {
			if s.State != resilience.CircuitClosed {
				resp.Status = "degraded"
			}
		}
	}
	return resp
}

// resetUpstreams closes every upstream circuit
// POST /api/upstreams/reset
func (h *handler) resetUpstreams(w http.ResponseWriter, r *http.Request) {
	if h.breakers != nil {
		h.breakers.ResetAll()
		h.logger.Info().Msg("Upstream circuits reset")
	}
	writeJSON(w, http.StatusOK, h.healthResponse())
}

// popular lists the suggested tickers
// GET /api/tickers/popular
func (h *handler) popular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PopularTickers)
}

// marketStatus
// GET /api/market/status
func (h *handler) marketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(utils.VietnamLocation)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": utils.MarketStatusAt(now),
		"time":   now,
	})
}

// ticker selects a ticker and returns its full view
// GET /api/tickers/{symbol}?days=&source=
func (h *handler) ticker(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	cmd := dashboard.SelectTicker{
		Symbol: symbol,
		Source: models.Source(r.URL.Query().Get("source")),
	}
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, h.logger, http.StatusBadRequest, ErrCodeInvalidParameter, "days must be an integer")
			return
		}
		cmd.Days = days
	}
	var view dashboard.TickerView
	if !h.dispatch(w, r, cmd, func() { view = h.d.Render(symbol) }) {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// company
// GET /api/tickers/{symbol}/company
func (h *handler) company(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	var view dashboard.TickerView
	if !h.dispatch(w, r, dashboard.LoadCompany{Symbol: symbol}, func() { view = h.d.Render(symbol) }) {
		return
	}
	writeJSON(w, http.StatusOK, SectionResponse{
		Data:    view.Company,
		Warning: view.Warnings[session.SectionCompany],
	})
}

// finance returns one statement limited to the view rows
// GET /api/tickers/{symbol}/finance/{kind}?period=&lang=
func (h *handler) finance(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	kind, ok := models.ParseStatementKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, r, h.logger, http.StatusBadRequest, ErrCodeInvalidParameter, "unknown statement kind")
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "quarter"
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "vi"
	}

	cmd := dashboard.LoadFinancials{Symbol: symbol, Kind: kind, Period: period, Lang: lang}
	var view dashboard.TickerView
	if !h.dispatch(w, r, cmd, func() { view = h.d.Render(symbol) }) {
		return
	}

	section := session.SectionFinance
	if kind == models.StatementRatio {
		section = session.SectionRatio
	}
	resp := SectionResponse{Warning: view.Warnings[section]}
	if st, ok := view.Statements[kind]; ok {
		resp.Data = st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) chatResponse(symbol string) ChatResponse {
	view := h.d.Render(symbol)
	return ChatResponse{
		Symbol:  view.Symbol,
		Turns:   view.Turns,
		State:   view.State,
		CanAsk:  view.CanAsk,
		Warning: view.Warnings[session.SectionAssistant],
	}
}

// chat
// GET /api/tickers/{symbol}/chat
func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chatResponse(chi.URLParam(r, "symbol")))
}

// ask records a question and answers it; 409 while an answer is pending
// POST /api/tickers/{symbol}/chat
func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, http.StatusBadRequest, ErrCodeInvalidParameter, "Invalid request body")
		return
	}

	symbol := chi.URLParam(r, "symbol")
	var resp ChatResponse
	if !h.dispatch(w, r, dashboard.AskQuestion{Symbol: symbol, Question: req.Question}, func() { resp = h.chatResponse(symbol) }) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// clearChat
// DELETE /api/tickers/{symbol}/chat
func (h *handler) clearChat(w http.ResponseWriter, r *http.Request) {
	if !h.dispatch(w, r, dashboard.ClearHistory{Symbol: chi.URLParam(r, "symbol")}, nil) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveCredential
// PUT /api/credential
func (h *handler) saveCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, http.StatusBadRequest, ErrCodeInvalidParameter, "Invalid request body")
		return
	}
	if !h.dispatch(w, r, dashboard.SaveCredential{Key: req.Key}, nil) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearCredential
// DELETE /api/credential
func (h *handler) clearCredential(w http.ResponseWriter, r *http.Request) {
	if !h.dispatch(w, r, dashboard.ClearCredential{}, nil) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scan runs the batch scan and returns its report
// POST /api/scan
func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	// An empty body, of known or unknown length, scans the configured list.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, h.logger, http.StatusBadRequest, ErrCodeInvalidParameter, "Invalid request body")
		return
	}
	var report *models.ScanReport
	if !h.dispatch(w, r, dashboard.RunScan{Symbols: req.Symbols}, func() { report = h.d.LastScan() }) {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// scanProgress reports the running scan after each symbol; poll it while
// POST /api/scan is in flight
// GET /api/scan/progress
func (h *handler) scanProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.ScanProgress())
}

// lastScan
// GET /api/scan/last
func (h *handler) lastScan(w http.ResponseWriter, r *http.Request) {
	report := h.d.LastScan()
	if report == nil {
		writeError(w, r, h.logger, http.StatusNotFound, ErrCodeNotFound, "no scan has run")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
