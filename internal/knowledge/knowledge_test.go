package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		question string
		want     Category
	}{
		{"Phân tích VNM theo phương pháp Chim Cút", CategoryMethod},
		{"CHIM CÚT nói gì về mã này?", CategoryMethod},
		{"chim cut co ap dung duoc khong", CategoryMethod},
		{"ChimCut entry?", CategoryMethod},
		{"Phuong phap nao phu hop?", CategoryMethod},
		{"Xu hướng ngắn hạn của FPT thế nào?", CategoryGeneral},
		{"", CategoryGeneral},
	}
	for _, tt := range tests {
		if got := Select(tt.question); got != tt.want {
			t.Errorf("Select(%q) = %s, want %s", tt.question, got, tt.want)
		}
	}
}

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestStore_Text(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "general.txt", "general rules\n")
	writeDoc(t, dir, "chimcut_method.txt", "method rules")
	writeDoc(t, dir, "chimcut_example.txt", "example answer")

	s := NewStore(dir, zerolog.Nop())

	if got := s.Text(CategoryGeneral); got != "general rules" {
		t.Errorf("general text = %q", got)
	}
	got := s.Text(CategoryMethod)
	if got != "method rules\n\nexample answer" {
		t.Errorf("method text = %q", got)
	}
	if strings.Contains(got, "general") {
		t.Errorf("method text should not include the general document")
	}
}

func TestStore_MissingDocumentIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent"), zerolog.Nop())

	if got := s.Load(KeyGeneral); got != "" {
		t.Errorf("Load = %q, want empty", got)
	}
	c, text := s.ForQuestion("phương pháp chim cút")
	if c != CategoryMethod || text != "" {
		t.Errorf("ForQuestion = %s %q", c, text)
	}
}

func TestStore_PartialMethodDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "chimcut_method.txt", "method only")

	s := NewStore(dir, zerolog.Nop())
	if got := s.Text(CategoryMethod); got != "method only" {
		t.Errorf("Text = %q", got)
	}
}
