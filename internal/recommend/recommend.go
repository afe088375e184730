// Package recommend detects buy calls in assistant answers.
//
// The classifier is a line heuristic. A line counts when it carries a
// recommendation marker, an affirmative keyword and no negation keyword.
// Phrasings outside the keyword lists are missed, and affirmative words
// inside other terms still match.
package recommend

import (
	"strings"
)

var markerKeywords = []string{
	"khuyến nghị",
	"khuyen nghi",
	"recommendation",
}

var affirmativeKeywords = []string{
	"mua",
	"buy",
}

var negationKeywords = []string{
	"không",
	"khong",
	"chưa",
	"chua",
	"đừng",
	"tránh",
	"not",
	"avoid",
}

func containsAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// IsBuy reports whether any marker line of text affirms a buy.
func IsBuy(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(line)
		if !containsAny(line, markerKeywords) {
			continue
		}
		if containsAny(line, affirmativeKeywords) && !containsAny(line, negationKeywords) {
			return true
		}
	}
	return false
}
