package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"vnstock-advisor/internal/agents"
	"vnstock-advisor/internal/config"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/marketdata"
	"vnstock-advisor/internal/models"
	"vnstock-advisor/internal/scan"
	"vnstock-advisor/internal/session"
	"vnstock-advisor/pkg/utils"
)

// CredentialStore persists the assistant credential.
type CredentialStore interface {
	Get(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// ClientFactory builds an assistant client for a credential.
type ClientFactory func(apiKey string) agents.LLMClient

// Options are the fixed windows and lists of the dispatcher.
type Options struct {
	AssistantDays int
	ScanDays      int
	ScanSymbols   []string
	Interval      models.Interval
}

// Deps are the collaborators of a Dispatcher. Credentials may be nil.
type Deps struct {
	State       *session.State
	Registry    *marketdata.Registry
	Knowledge   *knowledge.Store
	Credentials CredentialStore
	NewClient   ClientFactory
	Logger      zerolog.Logger
}

// Dispatcher applies commands to the session state one pass at a time.
type Dispatcher struct {
	mu sync.Mutex

	state       *session.State
	registry    *marketdata.Registry
	knowledge   *knowledge.Store
	credentials CredentialStore
	newClient   ClientFactory
	opts        Options
	logger      zerolog.Logger
	now         func() time.Time

	// progress is guarded separately so it can be read while a scan pass
	// holds mu.
	progressMu sync.Mutex
	progress   ScanStatus
}

// ScanStatus is the progress of the running or most recent scan.
type ScanStatus struct {
	Running bool           `json:"running"`
	Last    *scan.Progress `json:"last,omitempty"`
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	if opts.AssistantDays <= 0 {
		opts.AssistantDays = config.AssistantDays
	}
	if opts.ScanDays <= 0 {
		opts.ScanDays = config.AssistantDays
	}
	if len(opts.ScanSymbols) == 0 {
		opts.ScanSymbols = models.PopularSymbols()
	}
	if opts.Interval == "" {
		opts.Interval = models.IntervalDay
	}
	return &Dispatcher{
		state:       deps.State,
		registry:    deps.Registry,
		knowledge:   deps.Knowledge,
		credentials: deps.Credentials,
		newClient:   deps.NewClient,
		opts:        opts,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// State returns the session state.
func (d *Dispatcher) State() *session.State {
	return d.state
}

// LoadCredential reads the persisted credential when none is held in memory.
func (d *Dispatcher) LoadCredential(ctx context.Context) error {
	if d.state.Credential() != "" || d.credentials == nil {
		return nil
	}
	key, ok, err := d.credentials.Get(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to load credential")
	}
	if ok {
		d.state.SetCredential(key)
	}
	return nil
}

// Dispatch applies one command. Upstream failures are stored as section
// warnings; only invalid input and state-machine violations return errors.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	return d.DispatchThen(ctx, cmd, nil)
}

// DispatchThen applies cmd and, when it succeeds, calls read before the next
// pass may start. read sees exactly the state this pass left behind.
func (d *Dispatcher) DispatchThen(ctx context.Context, cmd Command, read func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.apply(ctx, cmd); err != nil {
		return err
	}
	if read != nil {
		read()
	}
	return nil
}

func (d *Dispatcher) apply(ctx context.Context, cmd Command) error {
	logger := logging.WithOperation(d.logger, cmd.name())
	ctx = logging.WithLogger(ctx, logger)
	start := time.Now()

	var err error
	switch c := cmd.(type) {
	case SelectTicker:
		err = d.selectTicker(ctx, c)
	case LoadCompany:
		err = d.loadCompany(ctx, c)
	case LoadFinancials:
		err = d.loadFinancials(ctx, c)
	case AskQuestion:
		err = d.askQuestion(ctx, c)
	case ResolvePending:
		err = d.resolvePending(ctx, c.Symbol)
	case ClearHistory:
		err = d.clearHistory(c)
	case SaveCredential:
		err = d.saveCredential(ctx, c)
	case ClearCredential:
		err = d.clearCredential(ctx)
	case RunScan:
		err = d.runScan(ctx, c)
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}

	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.Dur("duration", time.Since(start)).Msg("Command dispatched")
	return err
}

func normalize(symbol string) (string, error) {
	s, err := marketdata.NormalizeSymbol(symbol)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidSymbol, err)
	}
	return s, nil
}

func (d *Dispatcher) window(days int) (time.Time, time.Time) {
	return utils.TradingWindow(days, d.now())
}

func (d *Dispatcher) selectTicker(ctx context.Context, c SelectTicker) error {
	symbol, err := normalize(c.Symbol)
	if err != nil {
		return err
	}
	if c.Days != 0 {
		if err := config.ValidateDays(c.Days); err != nil {
			return err
		}
	}
	if c.Source != "" {
		if _, err := d.registry.Get(c.Source); err != nil {
			return err
		}
		c.Source = models.Source(strings.ToUpper(string(c.Source)))
	}

	sel := d.state.Select(session.Selection{Symbol: symbol, Source: c.Source, Days: c.Days})
	provider, err := d.registry.Get(sel.Source)
	if err != nil {
		return err
	}

	from, to := d.window(sel.Days)
	series, err := provider.History(ctx, marketdata.HistoryRequest{
		Symbol:   symbol,
		From:     from,
		To:       to,
		Interval: d.opts.Interval,
	})

	d.state.Update(symbol, func(t *session.TickerData) {
		t.LoadedAt = d.now()
		if err != nil {
			t.Series = nil
			t.Warnings[session.SectionPrice] = warningFor(err)
			return
		}
		t.Series = &series
		delete(t.Warnings, session.SectionPrice)
	})
	return nil
}

// fundamentals returns the provider for company and statement data. Sources
// without fundamentals fall back to TCBS.
func (d *Dispatcher) fundamentals(call func(marketdata.Provider) error) error {
	sel := d.state.Selection()
	provider, err := d.registry.Get(sel.Source)
	if err != nil {
		return err
	}
	err = call(provider)
	if apperrors.Is(err, apperrors.ErrUnsupported) && provider.Source() != models.SourceTCBS {
		if fallback, ferr := d.registry.Get(models.SourceTCBS); ferr == nil {
			err = call(fallback)
		}
	}
	return err
}

func (d *Dispatcher) loadCompany(ctx context.Context, c LoadCompany) error {
	symbol, err := normalize(c.Symbol)
	if err != nil {
		return err
	}

	var overview *models.CompanyOverview
	err = d.fundamentals(func(p marketdata.Provider) error {
		var ferr error
		overview, ferr = p.CompanyOverview(ctx, symbol)
		return ferr
	})

	d.state.Update(symbol, func(t *session.TickerData) {
		if err != nil {
			t.Company = nil
			t.Warnings[session.SectionCompany] = warningFor(err)
			return
		}
		t.Company = overview
		delete(t.Warnings, session.SectionCompany)
	})
	return nil
}

func (d *Dispatcher) loadFinancials(ctx context.Context, c LoadFinancials) error {
	symbol, err := normalize(c.Symbol)
	if err != nil {
		return err
	}
	if c.Kind == "" {
		return apperrors.NewValidationError("kind", c.Kind, "statement kind required")
	}
	section := session.SectionFinance
	if c.Kind == models.StatementRatio {
		section = session.SectionRatio
	}

	var statement *models.FinancialStatement
	err = d.fundamentals(func(p marketdata.Provider) error {
		var ferr error
		statement, ferr = p.Statement(ctx, symbol, c.Kind, c.Period, c.Lang)
		return ferr
	})

	d.state.Update(symbol, func(t *session.TickerData) {
		if err != nil {
			delete(t.Statements, c.Kind)
			t.Warnings[section] = warningFor(err)
			return
		}
		t.Statements[c.Kind] = statement
		delete(t.Warnings, section)
	})
	return nil
}

func (d *Dispatcher) askQuestion(ctx context.Context, c AskQuestion) error {
	symbol, err := normalize(c.Symbol)
	if err != nil {
		return err
	}
	question := strings.TrimSpace(c.Question)
	if question == "" {
		return apperrors.NewValidationError("question", c.Question, "question must not be empty")
	}
	if _, err := d.state.Conversation().AppendUser(symbol, question); err != nil {
		return err
	}
	return d.resolvePending(ctx, symbol)
}

// resolvePending always appends an answer, a diagnostic on failure, so the
// ticker leaves the awaiting state.
func (d *Dispatcher) resolvePending(ctx context.Context, raw string) error {
	symbol, err := normalize(raw)
	if err != nil {
		return err
	}
	conv := d.state.Conversation()
	pending, ok := conv.PendingQuestion(symbol)
	if !ok {
		return apperrors.Wrapf(apperrors.ErrNoPendingQuestion, "ticker %s", symbol)
	}

	series := d.assistantSeries(ctx, symbol)
	answer := d.advisor().Answer(ctx, symbol, pending.Content, series)

	if _, err := conv.AppendAssistant(symbol, answer.Text, answer.Failed); err != nil {
		return err
	}
	d.state.Update(symbol, func(t *session.TickerData) {
		if answer.Failed {
			t.Warnings[session.SectionAssistant] = answer.Text
			return
		}
		delete(t.Warnings, session.SectionAssistant)
	})
	return nil
}

// assistantSeries fetches the long window used for grounding, falling back
// to the loaded series and then to an empty series.
func (d *Dispatcher) assistantSeries(ctx context.Context, symbol string) models.PriceSeries {
	logger := logging.FromContext(ctx)
	sel := d.state.Selection()

	provider, err := d.registry.Get(sel.Source)
	if err == nil {
		from, to := d.window(d.opts.AssistantDays)
		var series models.PriceSeries
		series, err = provider.History(ctx, marketdata.HistoryRequest{
			Symbol:   symbol,
			From:     from,
			To:       to,
			Interval: d.opts.Interval,
		})
		if err == nil {
			return series
		}
	}
	logger.Warn().Err(err).Str("symbol", symbol).Msg("Grounding history unavailable")

	if cached, ok := d.state.Series(symbol); ok {
		return cached
	}
	return models.PriceSeries{Symbol: symbol}
}

func (d *Dispatcher) advisor() *agents.Advisor {
	var llm agents.LLMClient
	if key := d.state.Credential(); key != "" && d.newClient != nil {
		llm = d.newClient(key)
	}
	return agents.NewAdvisor(llm, d.knowledge, d.logger)
}

func (d *Dispatcher) clearHistory(c ClearHistory) error {
	symbol, err := normalize(c.Symbol)
	if err != nil {
		return err
	}
	d.state.ResetConversation(symbol)
	d.state.Update(symbol, func(t *session.TickerData) {
		delete(t.Warnings, session.SectionAssistant)
	})
	return nil
}

func (d *Dispatcher) saveCredential(ctx context.Context, c SaveCredential) error {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		return apperrors.NewValidationError("key", "", "credential must not be empty")
	}
	d.state.SetCredential(key)
	if d.credentials == nil {
		return nil
	}
	return apperrors.Wrap(d.credentials.Save(ctx, key), "failed to persist credential")
}

func (d *Dispatcher) clearCredential(ctx context.Context) error {
	d.state.ResetCredential()
	if d.credentials == nil {
		return nil
	}
	return apperrors.Wrap(d.credentials.Clear(ctx), "failed to clear credential")
}

func (d *Dispatcher) runScan(ctx context.Context, c RunScan) error {
	symbols := c.Symbols
	if len(symbols) == 0 {
		symbols = d.opts.ScanSymbols
	}
	provider, err := d.registry.Get(d.state.Selection().Source)
	if err != nil {
		return err
	}

	d.setScanStatus(ScanStatus{Running: true})
	scanner := scan.NewScanner(provider, d.advisor(), d.opts.ScanDays, d.logger)
	var last *scan.Progress
	report := scanner.Run(ctx, symbols, func(p scan.Progress) {
		last = &p
		d.setScanStatus(ScanStatus{Running: true, Last: last})
		if c.Progress != nil {
			c.Progress(p)
		}
	})
	d.state.SetLastScan(&report)
	d.setScanStatus(ScanStatus{Last: last})
	return nil
}

func (d *Dispatcher) setScanStatus(status ScanStatus) {
	d.progressMu.Lock()
	defer d.progressMu.Unlock()
	d.progress = status
}

// ScanProgress returns the progress of the running or most recent scan. It
// does not wait for a running pass.
func (d *Dispatcher) ScanProgress() ScanStatus {
	d.progressMu.Lock()
	defer d.progressMu.Unlock()
	return d.progress
}

// warningFor converts a data failure into the section warning shown to the user.
func warningFor(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrEmptySeries):
		return "Không có dữ liệu giá!"
	case apperrors.Is(err, apperrors.ErrUnsupported):
		return "Nguồn dữ liệu không hỗ trợ mục này."
	case apperrors.Is(err, apperrors.ErrUnsupportedSource):
		return "Nguồn dữ liệu không được hỗ trợ."
	}
	return "Lỗi khi lấy dữ liệu: " + err.Error()
}
