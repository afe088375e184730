package conversation

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
)

func TestLog_InitialStateIsIdle(t *testing.T) {
	l := NewLog()
	if l.State("VNM") != StateIdle {
		t.Errorf("State = %s, want idle", l.State("VNM"))
	}
	if l.NextAction("VNM") != ActionAcceptInput {
		t.Errorf("NextAction = %s", l.NextAction("VNM"))
	}
	if c := l.Counts("VNM"); c.User != 0 || c.Assistant != 0 {
		t.Errorf("Counts = %+v", c)
	}
}

func TestLog_Transitions(t *testing.T) {
	l := NewLog()

	q, err := l.AppendUser("vnm", "Xu hướng thế nào?")
	if err != nil {
		t.Fatalf("AppendUser: %v", err)
	}
	if q.Symbol != "VNM" || q.Role != models.RoleUser || q.ID == "" {
		t.Errorf("unexpected turn %+v", q)
	}
	if l.State("VNM") != StateAwaitingAnswer {
		t.Fatalf("State = %s, want awaiting", l.State("VNM"))
	}
	if l.NextAction("VNM") != ActionCallAssistant {
		t.Errorf("NextAction = %s", l.NextAction("VNM"))
	}

	pending, ok := l.PendingQuestion("VNM")
	if !ok || pending.ID != q.ID {
		t.Errorf("PendingQuestion = %+v, %v", pending, ok)
	}

	if _, err := l.AppendUser("VNM", "Câu hỏi thứ hai"); !apperrors.Is(err, apperrors.ErrAwaitingAnswer) {
		t.Errorf("second question: got %v, want ErrAwaitingAnswer", err)
	}

	if _, err := l.AppendAssistant("VNM", "Tăng", false); err != nil {
		t.Fatalf("AppendAssistant: %v", err)
	}
	if l.State("VNM") != StateIdle {
		t.Errorf("State = %s, want idle", l.State("VNM"))
	}
	if _, ok := l.PendingQuestion("VNM"); ok {
		t.Errorf("no question should be pending")
	}
	if _, err := l.AppendAssistant("VNM", "extra", false); !apperrors.Is(err, apperrors.ErrNoPendingQuestion) {
		t.Errorf("answer while idle: got %v, want ErrNoPendingQuestion", err)
	}
}

func TestLog_FailedAnswerLeavesAwaiting(t *testing.T) {
	l := NewLog()
	l.AppendUser("HPG", "Mua được không?")
	turn, err := l.AppendAssistant("HPG", "Hết thời gian chờ", true)
	if err != nil {
		t.Fatalf("AppendAssistant: %v", err)
	}
	if !turn.Failed {
		t.Errorf("turn should be marked failed")
	}
	if l.State("HPG") != StateIdle {
		t.Errorf("failed answer should return to idle")
	}
}

func TestLog_ClearIsPartitionedByTicker(t *testing.T) {
	l := NewLog()

	for i := 0; i < 2; i++ {
		l.AppendUser("FPT", "q")
		l.AppendAssistant("FPT", "a", false)
	}
	l.AppendUser("FPT", "q3")

	l.AppendUser("VNM", "q")
	l.AppendAssistant("VNM", "a", false)

	before := l.Turns("FPT")

	if removed := l.Clear("VNM"); removed != 2 {
		t.Errorf("Clear removed %d, want 2", removed)
	}

	if c := l.Counts("VNM"); c.User != 0 || c.Assistant != 0 {
		t.Errorf("VNM counts = %+v", c)
	}
	if l.State("VNM") != StateIdle {
		t.Errorf("VNM state = %s", l.State("VNM"))
	}

	after := l.Turns("FPT")
	if c := l.Counts("FPT"); c.User != 3 || c.Assistant != 2 {
		t.Errorf("FPT counts = %+v, want 3/2", c)
	}
	if len(after) != len(before) {
		t.Fatalf("FPT turns changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("FPT turn %d changed", i)
		}
	}
	if l.State("FPT") != StateAwaitingAnswer {
		t.Errorf("FPT state = %s", l.State("FPT"))
	}
}

func TestLog_GlobalOrder(t *testing.T) {
	l := NewLog()
	l.AppendUser("VNM", "1")
	l.AppendUser("FPT", "2")
	l.AppendAssistant("VNM", "3", false)

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Seq <= all[i-1].Seq {
			t.Errorf("turns not ordered by insertion")
		}
	}
	if got := l.Symbols(); len(got) != 2 || got[0] != "VNM" || got[1] != "FPT" {
		t.Errorf("Symbols = %v", got)
	}
}

// op is one generated operation on the log.
type op struct {
	Ticker    int
	Assistant bool
	Clear     bool
}

func TestProperty_TurnCountInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	tickers := []string{"VNM", "FPT", "HPG"}

	opGen := gopter.CombineGens(
		gen.IntRange(0, len(tickers)-1),
		gen.Bool(),
		gen.Weighted([]gen.WeightedGen{
			{Weight: 1, Gen: gen.Const(true)},
			{Weight: 9, Gen: gen.Const(false)},
		}),
	).Map(func(v []interface{}) op {
		return op{Ticker: v[0].(int), Assistant: v[1].(bool), Clear: v[2].(bool)}
	})

	properties.Property("assistant count is user count or user count - 1", prop.ForAll(
		func(ops []op) bool {
			l := NewLog()
			for _, o := range ops {
				symbol := tickers[o.Ticker]
				switch {
				case o.Clear:
					l.Clear(symbol)
				case o.Assistant:
					l.AppendAssistant(symbol, "a", false)
				default:
					l.AppendUser(symbol, "q")
				}
				for _, s := range tickers {
					c := l.Counts(s)
					if c.Assistant != c.User && c.Assistant != c.User-1 {
						t.Logf("%s counts %+v", s, c)
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(opGen),
	))

	properties.Property("rejected appends leave the log unchanged", prop.ForAll(
		func(ops []op) bool {
			l := NewLog()
			for _, o := range ops {
				symbol := tickers[o.Ticker]
				before := len(l.All())
				var err error
				if o.Assistant {
					_, err = l.AppendAssistant(symbol, "a", false)
				} else {
					_, err = l.AppendUser(symbol, "q")
				}
				if err != nil && len(l.All()) != before {
					return false
				}
			}
			return true
		},
		gen.SliceOf(opGen),
	))

	properties.TestingRun(t)
}
