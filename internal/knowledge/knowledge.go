// Package knowledge selects and loads the reference documents that ground
// assistant answers.
package knowledge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Category is the kind of knowledge a question needs.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryMethod  Category = "method"
)

// Key addresses one document in the store.
type Key string

const (
	KeyGeneral Key = "general"
	KeyMethod  Key = "method"
	KeyExample Key = "example"
)

var fileNames = map[Key]string{
	KeyGeneral: "general.txt",
	KeyMethod:  "chimcut_method.txt",
	KeyExample: "chimcut_example.txt",
}

// methodKeywords name the Chim Cút method, with and without diacritics.
var methodKeywords = []string{
	"chim cút",
	"chim cut",
	"chimcut",
	"phương pháp",
	"phuong phap",
}

// Select returns the category for a question. Matching is case-insensitive.
func Select(question string) Category {
	q := strings.ToLower(question)
	for _, kw := range methodKeywords {
		if strings.Contains(q, kw) {
			return CategoryMethod
		}
	}
	return CategoryGeneral
}

// Documents lists the keys loaded for a category, in concatenation order.
func Documents(c Category) []Key {
	if c == CategoryMethod {
		return []Key{KeyMethod, KeyExample}
	}
	return []Key{KeyGeneral}
}

// Store reads documents from a directory on each access.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the full text of a document, or "" when it is missing or
// unreadable.
func (s *Store) Load(key Key) string {
	name, ok := fileNames[key]
	if !ok {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		s.logger.Warn().Err(err).Str("document", name).Msg("knowledge document unavailable")
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Text loads every document of a category and joins the non-empty ones.
func (s *Store) Text(c Category) string {
	var parts []string
	for _, key := range Documents(c) {
		if text := s.Load(key); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ForQuestion selects the category of question and loads its text.
func (s *Store) ForQuestion(question string) (Category, string) {
	c := Select(question)
	return c, s.Text(c)
}
