package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/chatbot"
	"github.com/mmynk/tripwiser/pkg/api"
)

type stubGenerator struct {
	configured bool
	answer     string
	err        error
	prompt     string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func (g *stubGenerator) Configured() bool { return g.configured }

func writeFAQFile(t *testing.T, faqs ...chatbot.FAQ) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"faqs": faqs})
	if err != nil {
		t.Fatalf("failed to marshal faqs: %v", err)
	}
	path := filepath.Join(t.TempDir(), "faqs.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write faqs: %v", err)
	}
	return path
}

func setupChatbotService(t *testing.T, llm chatbot.Generator) (*ChatbotService, string) {
	t.Helper()
	path := writeFAQFile(t,
		chatbot.FAQ{Question: "How do I split an expense?", Answer: "Mark it as split and pick equal, percentage or custom."},
		chatbot.FAQ{Question: "Can I invite friends?", Answer: "Invite them as viewers or editors."},
	)
	idx, err := chatbot.LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	return NewChatbotService(chatbot.NewBot(path, llm, idx)), path
}

func TestAsk(t *testing.T) {
	env := setupTestEnv(t)
	llm := &stubGenerator{configured: true, answer: "Use a percentage split."}
	svc, _ := setupChatbotService(t, llm)

	resp, err := svc.Ask(env.as("alice"), connect.NewRequest(&api.AskRequest{Question: "  How do splits work? "}))
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if resp.Msg.Answer != "Use a percentage split." || resp.Msg.Question != "How do splits work?" {
		t.Errorf("unexpected response: %+v", resp.Msg)
	}
	if !strings.Contains(llm.prompt, "alice") || !strings.Contains(llm.prompt, "How do I split an expense?") {
		t.Errorf("prompt is missing the username or FAQ context:\n%s", llm.prompt)
	}
}

func TestAsk_Errors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name     string
		llm      *stubGenerator
		question string
		code     connect.Code
	}{
		{"empty question", &stubGenerator{configured: true}, "   ", connect.CodeInvalidArgument},
		{"too long", &stubGenerator{configured: true}, strings.Repeat("a", chatbot.MaxQuestionLength+1), connect.CodeInvalidArgument},
		{"no api key", &stubGenerator{}, "hello?", connect.CodeUnavailable},
		{"model failure", &stubGenerator{configured: true, err: errors.New("boom")}, "hello?", connect.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupChatbotService(t, tt.llm)
			_, err := svc.Ask(env.as("alice"), connect.NewRequest(&api.AskRequest{Question: tt.question}))
			expectCode(t, err, tt.code)
		})
	}

	svc, _ := setupChatbotService(t, &stubGenerator{configured: true})
	_, err := svc.Ask(context.Background(), connect.NewRequest(&api.AskRequest{Question: "hi"}))
	expectCode(t, err, connect.CodeUnauthenticated)
}

func TestSearchAndListFAQs(t *testing.T) {
	env := setupTestEnv(t)
	svc, _ := setupChatbotService(t, &stubGenerator{})

	resp, err := svc.SearchFAQs(env.as("alice"), connect.NewRequest(&api.SearchFAQsRequest{Query: "INVITE"}))
	if err != nil {
		t.Fatalf("SearchFAQs failed: %v", err)
	}
	if len(resp.Msg.Results) != 1 || resp.Msg.Results[0].Question != "Can I invite friends?" {
		t.Errorf("unexpected results: %+v", resp.Msg.Results)
	}

	_, err = svc.SearchFAQs(env.as("alice"), connect.NewRequest(&api.SearchFAQsRequest{Query: ""}))
	expectCode(t, err, connect.CodeInvalidArgument)

	list, err := svc.ListFAQs(env.as("alice"), connect.NewRequest(&api.ListFAQsRequest{}))
	if err != nil {
		t.Fatalf("ListFAQs failed: %v", err)
	}
	if len(list.Msg.FAQs) != 2 {
		t.Errorf("expected 2 faqs, got %d", len(list.Msg.FAQs))
	}
}

func TestChatbotHealth(t *testing.T) {
	svc, _ := setupChatbotService(t, &stubGenerator{configured: true})
	resp, err := svc.Health(context.Background(), connect.NewRequest(&api.HealthRequest{}))
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if resp.Msg.Status != "operational" || resp.Msg.FAQCount != 2 || !resp.Msg.LLMConfigured {
		t.Errorf("unexpected health: %+v", resp.Msg)
	}

	svc, _ = setupChatbotService(t, &stubGenerator{})
	resp, err = svc.Health(context.Background(), connect.NewRequest(&api.HealthRequest{}))
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if resp.Msg.Status != "unavailable" || resp.Msg.LLMConfigured {
		t.Errorf("unexpected health: %+v", resp.Msg)
	}
}

func TestReloadFAQs(t *testing.T) {
	env := setupTestEnv(t)
	svc, path := setupChatbotService(t, &stubGenerator{configured: true})

	data, err := json.Marshal(map[string]any{"faqs": []chatbot.FAQ{{Question: "Q", Answer: "A"}}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	resp, err := svc.ReloadFAQs(env.as("alice"), connect.NewRequest(&api.ReloadFAQsRequest{}))
	if err != nil {
		t.Fatalf("ReloadFAQs failed: %v", err)
	}
	if resp.Msg.FAQCount != 1 {
		t.Errorf("expected 1 faq after reload, got %d", resp.Msg.FAQCount)
	}

	// A broken file leaves the loaded FAQs in place.
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_, err = svc.ReloadFAQs(env.as("alice"), connect.NewRequest(&api.ReloadFAQsRequest{}))
	expectCode(t, err, connect.CodeInternal)

	list, err := svc.ListFAQs(env.as("alice"), connect.NewRequest(&api.ListFAQsRequest{}))
	if err != nil {
		t.Fatalf("ListFAQs failed: %v", err)
	}
	if len(list.Msg.FAQs) != 1 {
		t.Errorf("expected the previous faq to remain, got %d", len(list.Msg.FAQs))
	}

	noPath := NewChatbotService(chatbot.NewBot("", &stubGenerator{}, nil))
	_, err = noPath.ReloadFAQs(env.as("alice"), connect.NewRequest(&api.ReloadFAQsRequest{}))
	expectCode(t, err, connect.CodeFailedPrecondition)
}
