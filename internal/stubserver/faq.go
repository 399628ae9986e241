// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/ckyc-assist/internal/i18n"
)

//go:embed faqs.json
var faqData []byte

// MatchThreshold is the minimum normalized keyword score of an FAQ answer.
const MatchThreshold = 0.15

// FAQ is one canned question and answer.
type FAQ struct {
	ID       string            `json:"id"`
	Category string            `json:"category"`
	Keywords []string          `json:"keywords"`
	Question map[string]string `json:"question"`
	Answer   map[string]string `json:"answer"`
}

// AnswerIn returns the answer in lang, or the English answer.
func (f *FAQ) AnswerIn(lang string) string {
	if a, ok := f.Answer[lang]; ok && a != "" {
		return a
	}
	return f.Answer[i18n.English]
}

// Match is the outcome of matching one chat message.
type Match struct {
	Greeting bool
	FAQ      *FAQ
	Score    float64
}

// Matched reports whether the message was understood.
func (m Match) Matched() bool {
	return m.Greeting || m.FAQ != nil
}

// Matcher scores chat messages against the FAQ keywords.
type Matcher struct {
	greetings []string
	faqs      []FAQ
}

type faqFile struct {
	Greetings []string `json:"greetings"`
	FAQs      []FAQ    `json:"faqs"`
}

// DefaultMatcher returns a matcher over the built-in FAQ set.
func DefaultMatcher() (*Matcher, error) {
	return NewMatcher(faqData)
}

// NewMatcher parses a {"greetings": [...], "faqs": [...]} document.
func NewMatcher(data []byte) (*Matcher, error) {
	var f faqFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse faqs: %w", err)
	}
	m := &Matcher{faqs: f.FAQs}
	for _, g := range f.Greetings {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			m.greetings = append(m.greetings, g)
		}
	}
	return m, nil
}

// Len returns the number of FAQs.
func (m *Matcher) Len() int {
	return len(m.faqs)
}

// Match classifies message. Greetings win over FAQs; otherwise the FAQ with
// the highest score at or above MatchThreshold is returned.
//
// A keyword found as a whole word scores 2, one found inside the message
// scores 1, and the sum is divided by twice the keyword count.
func (m *Matcher) Match(message string) Match {
	lower := strings.ToLower(strings.TrimSpace(message))
	words := strings.FieldsFunc(lower, isSeparator)
	padded := " " + strings.Join(words, " ") + " "

	for _, g := range m.greetings {
		if strings.Contains(padded, " "+g+" ") {
			return Match{Greeting: true, Score: 1}
		}
	}

	var best *FAQ
	bestScore := 0.0
	for i := range m.faqs {
		f := &m.faqs[i]
		if len(f.Keywords) == 0 {
			continue
		}
		score := 0
		for _, kw := range f.Keywords {
			kw = strings.ToLower(kw)
			switch {
			case containsWord(words, kw):
				score += 2
			case strings.Contains(lower, kw):
				score++
			}
		}
		normalized := float64(score) / float64(len(f.Keywords)*2)
		if normalized > bestScore {
			best, bestScore = f, normalized
		}
	}

	if best == nil || bestScore < MatchThreshold {
		return Match{}
	}
	return Match{FAQ: best, Score: bestScore}
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

// isSeparator splits on whitespace and ASCII punctuation so "hello!" still
// greets.
func isSeparator(r rune) bool {
	if r <= ' ' {
		return true
	}
	return r < 0x80 && strings.ContainsRune("!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~", r)
}
