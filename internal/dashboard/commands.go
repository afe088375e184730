// Package dashboard turns user actions into commands, applies them to the
// session state and renders views from that state.
package dashboard

import (
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/scan"
)

// Command is one user action.
type Command interface {
	name() string
}

// SelectTicker makes a ticker active and loads its price history.
type SelectTicker struct {
	Symbol string
	Source models.Source // empty keeps the current source
	Days   int           // zero keeps the current window
}

// LoadCompany loads the company overview of a ticker.
type LoadCompany struct {
	Symbol string
}

// LoadFinancials loads one financial statement of a ticker.
type LoadFinancials struct {
	Symbol string
	Kind   models.StatementKind
	Period string // quarter, year
	Lang   string // vi, en
}

// AskQuestion records a question and answers it in the same pass.
type AskQuestion struct {
	Symbol   string
	Question string
}

// ResolvePending answers the pending question of a ticker.
type ResolvePending struct {
	Symbol string
}

// ClearHistory drops the conversation of a ticker.
type ClearHistory struct {
	Symbol string
}

// SaveCredential stores the assistant credential in memory and on disk.
type SaveCredential struct {
	Key string
}

// ClearCredential forgets the assistant credential.
type ClearCredential struct{}

// RunScan scans symbols for buy recommendations.
type RunScan struct {
	Symbols  []string // empty scans the configured list
	Progress func(scan.Progress)
}

func (SelectTicker) name() string    { return "select_ticker" }
func (LoadCompany) name() string     { return "load_company" }
func (LoadFinancials) name() string  { return "load_financials" }
func (AskQuestion) name() string     { return "ask_question" }
func (ResolvePending) name() string  { return "resolve_pending" }
func (ClearHistory) name() string    { return "clear_history" }
func (SaveCredential) name() string  { return "save_credential" }
func (ClearCredential) name() string { return "clear_credential" }
func (RunScan) name() string         { return "run_scan" }
