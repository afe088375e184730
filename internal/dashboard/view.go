package dashboard

import (
	"sort"

	"vnstock-advisor/internal/analysis/indicators"
	"vnstock-advisor/internal/conversation"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/session"
)

// View sizes.
const (
	HistoryRows   = 20
	StatementRows = 10
)

// TickerView is everything shown for one ticker.
type TickerView struct {
	Symbol        string                                              `json:"symbol"`
	Active        bool                                                `json:"active"`
	Selection     session.Selection                                   `json:"selection"`
	Latest        *models.PriceBar                                    `json:"latest,omitempty"`
	Indicators    *indicators.Bundle                                  `json:"indicators,omitempty"`
	LongRange     *indicators.RangeStats                              `json:"long_range,omitempty"`
	History       []models.PriceBar                                   `json:"history,omitempty"`
	Company       *models.CompanyOverview                             `json:"company,omitempty"`
	Statements    map[models.StatementKind]*models.FinancialStatement `json:"statements,omitempty"`
	Warnings      map[session.Section]string                          `json:"warnings,omitempty"`
	Turns         []models.Turn                                       `json:"turns"`
	State         conversation.State                                  `json:"state"`
	CanAsk        bool                                                `json:"can_ask"`
	Pending       *models.Turn                                        `json:"pending,omitempty"`
	HasCredential bool                                                `json:"has_credential"`
}

// Render builds the view of symbol from the current state. History is shown
// newest first. The question input is offered only while the ticker is idle.
func (d *Dispatcher) Render(symbol string) TickerView {
	sym := normalizeView(symbol)
	sel := d.state.Selection()
	conv := d.state.Conversation()

	view := TickerView{
		Symbol:        sym,
		Active:        sym == sel.Symbol,
		Selection:     sel,
		Statements:    map[models.StatementKind]*models.FinancialStatement{},
		Warnings:      map[session.Section]string{},
		Turns:         conv.Turns(sym),
		State:         conv.State(sym),
		HasCredential: d.state.Credential() != "",
	}
	view.CanAsk = view.State == conversation.StateIdle
	if pending, ok := conv.PendingQuestion(sym); ok {
		view.Pending = &pending
	}

	data, ok := d.state.Ticker(sym)
	if !ok {
		return view
	}
	view.Company = data.Company
	view.Warnings = data.Warnings
	for kind, statement := range data.Statements {
		view.Statements[kind] = statement.Head(StatementRows)
	}

	if data.Series == nil {
		return view
	}
	series := *data.Series
	if bundle, err := indicators.Compute(series); err == nil {
		view.Indicators = bundle
		latest := bundle.Latest
		view.Latest = &latest
	}
	if long, ok := indicators.LongRange(series); ok {
		view.LongRange = &long
	}

	history := series.Tail(HistoryRows)
	view.History = make([]models.PriceBar, len(history))
	copy(view.History, history)
	sort.SliceStable(view.History, func(i, j int) bool {
		return view.History[i].Date.After(view.History[j].Date)
	})
	return view
}

// LastScan returns the report of the most recent scan, or nil.
func (d *Dispatcher) LastScan() *models.ScanReport {
	return d.state.LastScan()
}

func normalizeView(symbol string) string {
	if s, err := normalize(symbol); err == nil {
		return s
	}
	return symbol
}
