package agents

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/models"
)

// fakeLLM records the last request and replies with a fixed answer.
type fakeLLM struct {
	reply  string
	err    error
	system string
	prompt string
	calls  int
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

func testSeries() models.PriceSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 20)
	for i := range bars {
		c := 20 + float64(i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 500000}
	}
	return models.PriceSeries{Symbol: "FPT", Source: models.SourceTCBS, Interval: models.IntervalDay, Bars: bars}
}

func testStore(t *testing.T) *knowledge.Store {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"general.txt":         "GENERAL DOC",
		"chimcut_method.txt":  "METHOD DOC",
		"chimcut_example.txt": "EXAMPLE DOC",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return knowledge.NewStore(dir, zerolog.Nop())
}

func TestAdvisor_AnswerGroundsQuestion(t *testing.T) {
	llm := &fakeLLM{reply: "  ▸ Khuyến Nghị Vị Thế: MUA \n"}
	a := NewAdvisor(llm, testStore(t), zerolog.Nop())

	ans := a.Answer(context.Background(), "FPT", "Theo phương pháp Chim Cút thì sao?", testSeries())
	if ans.Failed || ans.Err != nil {
		t.Fatalf("unexpected failure: %+v", ans)
	}
	if ans.Text != "▸ Khuyến Nghị Vị Thế: MUA" {
		t.Errorf("Text = %q", ans.Text)
	}
	if ans.Category != knowledge.CategoryMethod {
		t.Errorf("Category = %s", ans.Category)
	}
	if !strings.Contains(llm.system, "METHOD DOC") || !strings.Contains(llm.system, "EXAMPLE DOC") {
		t.Errorf("system prompt missing method documents")
	}
	if strings.Contains(llm.system, "GENERAL DOC") {
		t.Errorf("system prompt should not include the general document")
	}
	if !strings.Contains(llm.system, "=== DỮ LIỆU KỸ THUẬT: FPT ===") {
		t.Errorf("system prompt missing briefing")
	}
	if !strings.Contains(llm.prompt, "FPT") || !strings.Contains(llm.prompt, "Chim Cút") {
		t.Errorf("prompt = %q", llm.prompt)
	}
}

func TestAdvisor_FailuresBecomeDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		llm  LLMClient
		want string
	}{
		{"no credential", nil, "Chưa cấu hình OpenAI API key"},
		{"auth", &fakeLLM{err: apperrors.NewAgentError("openai", "complete", apperrors.ErrAssistantAuth)}, "API key không hợp lệ"},
		{"quota", &fakeLLM{err: apperrors.NewAgentError("openai", "complete", apperrors.ErrAssistantQuota)}, "vượt hạn mức"},
		{"timeout", &fakeLLM{err: apperrors.NewAgentError("openai", "complete", apperrors.ErrAssistantTimeout)}, "quá thời gian chờ"},
		{"network", &fakeLLM{err: apperrors.NewAgentError("openai", "complete", apperrors.ErrAssistantNetwork)}, "Lỗi kết nối mạng"},
		{"empty", &fakeLLM{reply: "   "}, "không trả về nội dung"},
		{"other", &fakeLLM{err: errors.New("boom")}, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdvisor(tt.llm, testStore(t), zerolog.Nop())
			ans := a.Answer(context.Background(), "FPT", "Xu hướng?", testSeries())
			if !ans.Failed || ans.Err == nil {
				t.Fatalf("expected failed answer, got %+v", ans)
			}
			if !strings.Contains(ans.Text, tt.want) {
				t.Errorf("Text = %q, want substring %q", ans.Text, tt.want)
			}
		})
	}
}

func TestAdvisor_EmptySeriesStillAsks(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	a := NewAdvisor(llm, knowledge.NewStore(t.TempDir(), zerolog.Nop()), zerolog.Nop())

	ans := a.Answer(context.Background(), "VNM", "Giá?", models.PriceSeries{Symbol: "VNM"})
	if ans.Failed {
		t.Fatalf("unexpected failure: %+v", ans)
	}
	if !strings.Contains(llm.system, "Không có dữ liệu giá") {
		t.Errorf("system prompt should say data is missing")
	}
}

func TestOpenAIClient_ClassifiesHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`, apperrors.ErrAssistantAuth},
		{http.StatusTooManyRequests, `{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`, apperrors.ErrAssistantQuota},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		}))

		c := NewOpenAIClient("sk-test", ClientOptions{BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second})
		_, err := c.CompleteWithSystem(context.Background(), "sys", "q")
		srv.Close()

		if !apperrors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
		var agentErr *apperrors.AgentError
		if !apperrors.As(err, &agentErr) {
			t.Errorf("status %d: expected AgentError", tt.status)
		}
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", ClientOptions{BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond})
	_, err := c.CompleteWithSystem(context.Background(), "sys", "q")
	if !apperrors.Is(err, apperrors.ErrAssistantTimeout) {
		t.Errorf("got %v, want ErrAssistantTimeout", err)
	}
}

func TestOpenAIClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"Xin chào"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", ClientOptions{BaseURL: srv.URL + "/v1"})
	got, err := c.CompleteWithSystem(context.Background(), "sys", "q")
	if err != nil {
		t.Fatalf("CompleteWithSystem: %v", err)
	}
	if got != "Xin chào" {
		t.Errorf("got %q", got)
	}
	if c.GetModel() != "gpt-4o-mini" {
		t.Errorf("model = %s", c.GetModel())
	}
}
