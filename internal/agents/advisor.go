package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"vnstock-advisor/internal/briefing"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/models"
)

// noDataBriefing replaces the indicator block when the series is empty.
const noDataBriefing = "=== DỮ LIỆU KỸ THUẬT ===\nKhông có dữ liệu giá cho mã này."

// Answer is the outcome of one assistant request.
type Answer struct {
	Text     string
	Failed   bool // Text is a diagnostic
	Category knowledge.Category
	Err      error
	Duration time.Duration
}

// Advisor grounds a question in the ticker's indicators and the selected
// knowledge, then asks the assistant.
type Advisor struct {
	llm       LLMClient
	knowledge *knowledge.Store
	logger    zerolog.Logger
}

// NewAdvisor creates an advisor. A nil llm makes every answer a
// missing-credential diagnostic.
func NewAdvisor(llm LLMClient, store *knowledge.Store, logger zerolog.Logger) *Advisor {
	return &Advisor{
		llm:       llm,
		knowledge: store,
		logger:    logger,
	}
}

// Context builds the grounding context for a question.
func (a *Advisor) Context(question string, series models.PriceSeries) (knowledge.Category, string) {
	brief := noDataBriefing
	if in, err := briefing.FromSeries(series); err == nil {
		brief = briefing.Compose(in)
	}
	category := knowledge.Select(question)
	text := ""
	if a.knowledge != nil {
		text = a.knowledge.Text(category)
	}
	return category, briefing.GroundingContext(brief, text)
}

// Answer never returns an error: failures come back as a failed Answer whose
// Text is a user-facing diagnostic.
func (a *Advisor) Answer(ctx context.Context, symbol, question string, series models.PriceSeries) Answer {
	category, system := a.Context(question, series)
	logger := logging.WithSymbol(a.logger, symbol)

	if a.llm == nil {
		err := apperrors.NewAgentError("advisor", "answer", apperrors.ErrNoCredential)
		logger.Warn().Err(err).Msg("assistant call skipped")
		return Answer{Text: Diagnose(err), Failed: true, Category: category, Err: err}
	}

	start := time.Now()
	text, err := a.llm.CompleteWithSystem(ctx, system, userPrompt(symbol, question))
	duration := time.Since(start)
	logging.LogAssistantCall(a.logger, symbol, string(category), duration, err)

	if err == nil && strings.TrimSpace(text) == "" {
		err = apperrors.NewAgentError("advisor", "answer", apperrors.ErrAssistantEmpty)
	}
	if err != nil {
		return Answer{Text: Diagnose(err), Failed: true, Category: category, Err: err, Duration: duration}
	}
	return Answer{Text: strings.TrimSpace(text), Category: category, Duration: duration}
}

func userPrompt(symbol, question string) string {
	return fmt.Sprintf("Mã cổ phiếu: %s\nCâu hỏi: %s", symbol, question)
}
