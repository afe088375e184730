// Package session holds the process-scoped dashboard state. Every handler
// receives the same *State; fields are grouped and each group has its own
// reset operation.
package session

import (
	"strings"
	"sync"
	"time"

	"vnstock-advisor/internal/conversation"
	"vnstock-advisor/internal/models"
)

// Section names a dashboard panel that loads and fails independently.
type Section string

const (
	SectionPrice     Section = "price"
	SectionCompany   Section = "company"
	SectionFinance   Section = "finance"
	SectionRatio     Section = "ratio"
	SectionAssistant Section = "assistant"
)

// Selection is the ticker-selection field group.
type Selection struct {
	Symbol string        `json:"symbol"`
	Source models.Source `json:"source"`
	Days   int           `json:"days"`
}

// TickerData is the loaded data of one ticker. Series never outlives the
// session.
type TickerData struct {
	Series     *models.PriceSeries                                 `json:"series,omitempty"`
	Company    *models.CompanyOverview                             `json:"company,omitempty"`
	Statements map[models.StatementKind]*models.FinancialStatement `json:"statements,omitempty"`
	Warnings   map[Section]string                                  `json:"warnings,omitempty"`
	LoadedAt   time.Time                                           `json:"loaded_at"`
}

func newTickerData() *TickerData {
	return &TickerData{
		Statements: make(map[models.StatementKind]*models.FinancialStatement),
		Warnings:   make(map[Section]string),
	}
}

func (t *TickerData) clone() TickerData {
	out := *t
	out.Statements = make(map[models.StatementKind]*models.FinancialStatement, len(t.Statements))
	for k, v := range t.Statements {
		out.Statements[k] = v
	}
	out.Warnings = make(map[Section]string, len(t.Warnings))
	for k, v := range t.Warnings {
		out.Warnings[k] = v
	}
	return out
}

// State is the session state object.
type State struct {
	mu sync.RWMutex

	selection    Selection
	conversation *conversation.Log
	tickers      map[string]*TickerData
	credential   string
	lastScan     *models.ScanReport
}

// New creates a state with the given default selection.
func New(defaults Selection) *State {
	return &State{
		selection:    defaults,
		conversation: conversation.NewLog(),
		tickers:      make(map[string]*TickerData),
	}
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Conversation returns the turn log shared by every ticker.
func (s *State) Conversation() *conversation.Log {
	return s.conversation
}

// Selection returns the current ticker selection.
func (s *State) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Select replaces the ticker selection. Zero fields keep their value.
func (s *State) Select(sel Selection) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel.Symbol != "" {
		s.selection.Symbol = key(sel.Symbol)
	}
	if sel.Source != "" {
		s.selection.Source = sel.Source
	}
	if sel.Days > 0 {
		s.selection.Days = sel.Days
	}
	return s.selection
}

// Update applies fn to the data of symbol, creating it when missing.
func (s *State) Update(symbol string, fn func(*TickerData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(symbol)
	data, ok := s.tickers[k]
	if !ok {
		data = newTickerData()
		s.tickers[k] = data
	}
	fn(data)
}

// Ticker returns a copy of the data of symbol.
func (s *State) Ticker(symbol string) (TickerData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tickers[key(symbol)]
	if !ok {
		return TickerData{}, false
	}
	return data.clone(), true
}

// Series returns the loaded series of symbol.
func (s *State) Series(symbol string) (models.PriceSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tickers[key(symbol)]
	if !ok || data.Series == nil {
		return models.PriceSeries{}, false
	}
	return *data.Series, true
}

// Credential returns the assistant credential held in memory.
func (s *State) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetCredential replaces the in-memory credential.
func (s *State) SetCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = strings.TrimSpace(credential)
}

// LastScan returns the report of the most recent scan, or nil.
func (s *State) LastScan() *models.ScanReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScan
}

// SetLastScan stores the latest scan report.
func (s *State) SetLastScan(report *models.ScanReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = report
}

// ResetConversation clears the turns of one ticker.
func (s *State) ResetConversation(symbol string) int {
	return s.conversation.Clear(symbol)
}

// ResetSeries drops every loaded ticker dataset.
func (s *State) ResetSeries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers = make(map[string]*TickerData)
}

// ResetCredential forgets the in-memory credential.
func (s *State) ResetCredential() {
	s.SetCredential("")
}

// ResetScan forgets the last scan report.
func (s *State) ResetScan() {
	s.SetLastScan(nil)
}

// ResetAll resets every field group except the selection defaults.
func (s *State) ResetAll() {
	s.conversation.Reset()
	s.ResetSeries()
	s.ResetCredential()
	s.ResetScan()
}
