// Package conversation holds the per-ticker turn log and its pending-answer state machine.
package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
)

// State is the conversation state of one ticker.
type State string

const (
	// StateIdle: assistant turns == user turns.
	StateIdle State = "idle"
	// StateAwaitingAnswer: user turns == assistant turns + 1.
	StateAwaitingAnswer State = "awaiting_answer"
)

// Action is what the dispatcher should do next for a ticker.
type Action string

const (
	ActionAcceptInput   Action = "accept_input"
	ActionCallAssistant Action = "call_assistant"
)

// Counts holds the turn counts of one ticker.
type Counts struct {
	User      int `json:"user"`
	Assistant int `json:"assistant"`
}

// Log is the append-only, globally ordered turn sequence of a session.
// Turns of different tickers never affect each other.
type Log struct {
	mu    sync.RWMutex
	turns []models.Turn
	seq   int
	now   func() time.Time
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// countsLocked must be called with mu held.
func (l *Log) countsLocked(symbol string) Counts {
	var c Counts
	for _, t := range l.turns {
		if t.Symbol != symbol {
			continue
		}
		if t.Role == models.RoleUser {
			c.User++
		} else {
			c.Assistant++
		}
	}
	return c
}

func stateOf(c Counts) State {
	if c.User == c.Assistant+1 {
		return StateAwaitingAnswer
	}
	return StateIdle
}

func (l *Log) appendLocked(symbol string, role models.Role, content string, failed bool) models.Turn {
	l.seq++
	t := models.Turn{
		ID:        uuid.NewString(),
		Seq:       l.seq,
		Symbol:    symbol,
		Role:      role,
		Content:   content,
		Failed:    failed,
		Timestamp: l.now(),
	}
	l.turns = append(l.turns, t)
	return t
}

// AppendUser records a question. It fails with ErrAwaitingAnswer while the
// ticker already has an unanswered question.
func (l *Log) AppendUser(symbol, content string) (models.Turn, error) {
	symbol = normalize(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	if stateOf(l.countsLocked(symbol)) == StateAwaitingAnswer {
		return models.Turn{}, apperrors.Wrapf(apperrors.ErrAwaitingAnswer, "ticker %s", symbol)
	}
	return l.appendLocked(symbol, models.RoleUser, content, false), nil
}

// AppendAssistant records the answer to the pending question. failed marks a
// synthetic diagnostic answer. It fails with ErrNoPendingQuestion when idle.
func (l *Log) AppendAssistant(symbol, content string, failed bool) (models.Turn, error) {
	symbol = normalize(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	if stateOf(l.countsLocked(symbol)) != StateAwaitingAnswer {
		return models.Turn{}, apperrors.Wrapf(apperrors.ErrNoPendingQuestion, "ticker %s", symbol)
	}
	return l.appendLocked(symbol, models.RoleAssistant, content, failed), nil
}

// State returns the state of a ticker. Unknown tickers are idle.
func (l *Log) State(symbol string) State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return stateOf(l.countsLocked(normalize(symbol)))
}

// NextAction maps the ticker state to the dispatcher action.
func (l *Log) NextAction(symbol string) Action {
	if l.State(symbol) == StateAwaitingAnswer {
		return ActionCallAssistant
	}
	return ActionAcceptInput
}

// Counts returns the user and assistant turn counts of a ticker.
func (l *Log) Counts(symbol string) Counts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.countsLocked(normalize(symbol))
}

// PendingQuestion returns the unanswered user turn of a ticker.
func (l *Log) PendingQuestion(symbol string) (models.Turn, bool) {
	symbol = normalize(symbol)
	l.mu.RLock()
	defer l.mu.RUnlock()

	if stateOf(l.countsLocked(symbol)) != StateAwaitingAnswer {
		return models.Turn{}, false
	}
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Symbol == symbol && l.turns[i].Role == models.RoleUser {
			return l.turns[i], true
		}
	}
	return models.Turn{}, false
}

// Turns returns the turns of a ticker in insertion order.
func (l *Log) Turns(symbol string) []models.Turn {
	symbol = normalize(symbol)
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.Turn
	for _, t := range l.turns {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// All returns every turn in insertion order.
func (l *Log) All() []models.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Turn(nil), l.turns...)
}

// Symbols returns the tickers with at least one turn, in order of first turn.
func (l *Log) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range l.turns {
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			out = append(out, t.Symbol)
		}
	}
	return out
}

// Clear drops every turn of a ticker, returning it to idle with zero turns.
// Returns the number of turns removed.
func (l *Log) Clear(symbol string) int {
	symbol = normalize(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.turns[:0]
	removed := 0
	for _, t := range l.turns {
		if t.Symbol == symbol {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	l.turns = kept
	return removed
}

// Reset drops every turn of every ticker.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}
