// Package chatbot answers questions about Tripwiser from a file of FAQs,
// using a Gemini model constrained to that FAQ context.
package chatbot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultSearchLimit is used when a search limit is missing or out of range.
const DefaultSearchLimit = 5

// MaxSearchLimit is the largest accepted search limit.
const MaxSearchLimit = 50

// FAQ is one question and its answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Index is an immutable set of FAQs with the prompt context rendered from them.
type Index struct {
	faqs    []FAQ
	context string
}

// NewIndex builds an index over faqs.
func NewIndex(faqs []FAQ) *Index {
	idx := &Index{faqs: append([]FAQ(nil), faqs...)}
	idx.context = renderContext(idx.faqs)
	return idx
}

// LoadIndex reads a JSON file of the form {"faqs": [{"question": ..., "answer": ...}]}.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FAQ file: %w", err)
	}

	var doc struct {
		FAQs []FAQ `json:"faqs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse FAQ file %s: %w", path, err)
	}
	return NewIndex(doc.FAQs), nil
}

// Len returns the number of FAQs.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.faqs)
}

// FAQs returns a copy of all FAQs in file order.
func (idx *Index) FAQs() []FAQ {
	if idx == nil {
		return nil
	}
	return append([]FAQ(nil), idx.faqs...)
}

// Context returns the numbered FAQ block included in prompts.
func (idx *Index) Context() string {
	if idx == nil {
		return ""
	}
	return idx.context
}

// Search returns up to limit FAQs whose question or answer contains query,
// ignoring case. Limits outside 1..MaxSearchLimit use DefaultSearchLimit.
func (idx *Index) Search(query string, limit int) []FAQ {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}
	if limit < 1 || limit > MaxSearchLimit {
		limit = DefaultSearchLimit
	}

	var matches []FAQ
	for _, faq := range idx.faqs {
		if strings.Contains(strings.ToLower(faq.Question), query) || strings.Contains(strings.ToLower(faq.Answer), query) {
			matches = append(matches, faq)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

func renderContext(faqs []FAQ) string {
	if len(faqs) == 0 {
		return ""
	}
	parts := []string{"Here are the FAQs about Trip Planner:\n"}
	for i, faq := range faqs {
		parts = append(parts, fmt.Sprintf("\nQ%d: %s", i+1, faq.Question), fmt.Sprintf("A%d: %s", i+1, faq.Answer))
	}
	return strings.Join(parts, "\n")
}
