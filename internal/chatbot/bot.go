package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// MaxQuestionLength is the longest accepted question, in characters.
const MaxQuestionLength = 500

var (
	ErrUnavailable     = errors.New("chatbot is unavailable")
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrQuestionTooLong = fmt.Errorf("question is too long (max %d characters)", MaxQuestionLength)
	ErrNoFAQPath       = errors.New("no FAQ path configured")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Bot answers questions from the current FAQ index. The index can be swapped
// at runtime with Reload while questions are being served.
type Bot struct {
	path  string
	llm   Generator
	index atomic.Pointer[Index]
}

// NewBot creates a bot that reloads from path and starts with index, which may be nil.
func NewBot(path string, llm Generator, index *Index) *Bot {
	b := &Bot{path: path, llm: llm}
	if index == nil {
		index = NewIndex(nil)
	}
	b.index.Store(index)
	return b
}

// Index returns the FAQ index currently in use.
func (b *Bot) Index() *Index {
	return b.index.Load()
}

// LLMConfigured reports whether the model client has credentials.
func (b *Bot) LLMConfigured() bool {
	return b.llm != nil && b.llm.Configured()
}

// Available reports whether questions can be answered.
func (b *Bot) Available() bool {
	return b.LLMConfigured() && b.Index().Len() > 0
}

// Reload reads the FAQ file again and swaps in the new index. On failure the
// previous index stays in place.
func (b *Bot) Reload() (*Index, error) {
	if b.path == "" {
		return nil, ErrNoFAQPath
	}
	idx, err := LoadIndex(b.path)
	if err != nil {
		return nil, err
	}
	b.index.Store(idx)
	slog.Info("FAQs reloaded", "path", b.path, "faq_count", idx.Len())
	return idx, nil
}

// Ask answers question using the FAQ context. username, when set, is
// mentioned to the model.
func (b *Bot) Ask(ctx context.Context, question, username string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if len([]rune(question)) > MaxQuestionLength {
		return "", ErrQuestionTooLong
	}
	if !b.Available() {
		return "", ErrUnavailable
	}

	answer, err := b.llm.Generate(ctx, buildPrompt(b.Index().Context(), question, username))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
