package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var sampleFAQs = []FAQ{
	{Question: "How do I create a trip?", Answer: "Open the dashboard and choose New Trip."},
	{Question: "How are expenses split?", Answer: "Equally, by percentage or by custom amounts."},
	{Question: "Can I invite friends?", Answer: "Yes, invite collaborators as viewers or editors."},
	{Question: "What currencies are supported?", Answer: "Each trip has one currency; expenses use it."},
}

func writeFAQs(t *testing.T, faqs []FAQ) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"faqs": faqs})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "faqs.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

type fakeGenerator struct {
	configured bool
	answer     string
	err        error
	prompts    []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func TestLoadIndex(t *testing.T) {
	t.Run("reads faqs", func(t *testing.T) {
		idx, err := LoadIndex(writeFAQs(t, sampleFAQs))
		require.NoError(t, err)
		assert.Equal(t, 4, idx.Len())
		assert.Equal(t, sampleFAQs, idx.FAQs())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadIndex(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := LoadIndex(path)
		assert.Error(t, err)
	})
}

func TestIndexContext(t *testing.T) {
	idx := NewIndex(sampleFAQs[:2])
	want := "Here are the FAQs about Trip Planner:\n\n" +
		"\nQ1: How do I create a trip?\n" +
		"A1: Open the dashboard and choose New Trip.\n" +
		"\nQ2: How are expenses split?\n" +
		"A2: Equally, by percentage or by custom amounts."
	assert.Equal(t, want, idx.Context())
	assert.Empty(t, NewIndex(nil).Context())
}

func TestIndexSearch(t *testing.T) {
	idx := NewIndex(sampleFAQs)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"matches question case-insensitively", "TRIP", 5, []string{"How do I create a trip?", "What currencies are supported?"}},
		{"matches answer", "collaborators", 5, []string{"Can I invite friends?"}},
		{"respects limit", "?", 2, []string{"How do I create a trip?", "How are expenses split?"}},
		{"out of range limit uses default", "?", 0, []string{"How do I create a trip?", "How are expenses split?", "Can I invite friends?", "What currencies are supported?"}},
		{"no match", "visa", 5, nil},
		{"blank query", "   ", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, faq := range idx.Search(tt.query, tt.limit) {
				got = append(got, faq.Question)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBotAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("prompt carries context and user", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, answer: "Choose New Trip."}
		bot := NewBot("", gen, NewIndex(sampleFAQs))

		answer, err := bot.Ask(ctx, "  How do I start?  ", "alice")
		require.NoError(t, err)
		assert.Equal(t, "Choose New Trip.", answer)

		require.Len(t, gen.prompts, 1)
		prompt := gen.prompts[0]
		assert.Contains(t, prompt, "You are currently helping user: alice")
		assert.Contains(t, prompt, "Q3: Can I invite friends?")
		assert.Contains(t, prompt, "User Question: How do I start?\n")
	})

	t.Run("anonymous prompt omits user line", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, answer: "ok"}
		bot := NewBot("", gen, NewIndex(sampleFAQs))
		_, err := bot.Ask(ctx, "hi", "")
		require.NoError(t, err)
		assert.NotContains(t, gen.prompts[0], "currently helping user")
	})

	t.Run("validation", func(t *testing.T) {
		bot := NewBot("", &fakeGenerator{configured: true}, NewIndex(sampleFAQs))
		_, err := bot.Ask(ctx, " ", "alice")
		assert.ErrorIs(t, err, ErrEmptyQuestion)
		_, err = bot.Ask(ctx, strings.Repeat("a", MaxQuestionLength+1), "alice")
		assert.ErrorIs(t, err, ErrQuestionTooLong)
	})

	t.Run("unavailable without key", func(t *testing.T) {
		bot := NewBot("", &fakeGenerator{}, NewIndex(sampleFAQs))
		_, err := bot.Ask(ctx, "hi", "alice")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, bot.LLMConfigured())
	})

	t.Run("unavailable without faqs", func(t *testing.T) {
		bot := NewBot("", &fakeGenerator{configured: true}, nil)
		_, err := bot.Ask(ctx, "hi", "alice")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.True(t, bot.LLMConfigured())
	})

	t.Run("generator failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		bot := NewBot("", &fakeGenerator{configured: true, err: boom}, NewIndex(sampleFAQs))
		_, err := bot.Ask(ctx, "hi", "alice")
		assert.ErrorIs(t, err, boom)
	})
}

func TestBotReload(t *testing.T) {
	path := writeFAQs(t, sampleFAQs[:1])
	bot := NewBot(path, &fakeGenerator{configured: true}, nil)
	assert.Equal(t, 0, bot.Index().Len())

	idx, err := bot.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Same(t, idx, bot.Index())

	t.Run("failure keeps previous index", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
		_, err := bot.Reload()
		assert.Error(t, err)
		assert.Equal(t, 1, bot.Index().Len())
	})

	t.Run("no path", func(t *testing.T) {
		_, err := NewBot("", nil, nil).Reload()
		assert.ErrorIs(t, err, ErrNoFAQPath)
	})
}

func TestGeminiClient(t *testing.T) {
	var (
		mu              sync.Mutex
		gotPath, gotKey string
		gotBody         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotKey, gotBody = r.URL.Path, r.Header.Get("x-goog-api-key"), body
		mu.Unlock()
		switch gjson.GetBytes(body, "contents.0.parts.0.text").String() {
		case "fail":
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded"}}`))
		case "empty":
			w.Write([]byte(`{"candidates": []}`))
		default:
			w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "  Hello "}, {"text": "there.\n"}]}}]}`))
		}
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClient("g-key", "", srv.URL, 5*time.Second)
	require.True(t, client.Configured())
	assert.Equal(t, DefaultGeminiModel, client.Model())

	t.Run("success", func(t *testing.T) {
		answer, err := client.Generate(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "Hello there.", answer)

		mu.Lock()
		defer mu.Unlock()

		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
		assert.Equal(t, "g-key", gotKey)
		cfg := gjson.GetBytes(gotBody, "generationConfig")
		assert.Equal(t, 0.7, cfg.Get("temperature").Float())
		assert.Equal(t, 0.9, cfg.Get("topP").Float())
		assert.Equal(t, int64(40), cfg.Get("topK").Int())
		assert.Equal(t, int64(300), cfg.Get("maxOutputTokens").Int())
	})

	t.Run("error status", func(t *testing.T) {
		_, err := client.Generate(context.Background(), "fail")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := client.Generate(context.Background(), "empty")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})
}
