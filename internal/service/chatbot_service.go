package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/chatbot"
	"github.com/mmynk/tripwiser/internal/middleware"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/pkg/api"
)

// Procedures of the ChatbotService that the server treats specially.
var (
	// ChatbotHealthProcedure is served without authentication.
	ChatbotHealthProcedure = rpc.Procedure(api.ChatbotServiceName, "Health")

	// ChatbotAskProcedure is rate limited per user.
	ChatbotAskProcedure = rpc.Procedure(api.ChatbotServiceName, "Ask")
)

// ChatbotService implements the Connect ChatbotService.
type ChatbotService struct {
	bot *chatbot.Bot
}

// NewChatbotService creates a ChatbotService answering from bot.
func NewChatbotService(bot *chatbot.Bot) *ChatbotService {
	return &ChatbotService{bot: bot}
}

// Handler returns the mount path and handler serving this service.
func (s *ChatbotService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.ChatbotServiceName, opts...)
	rpc.Handle(m, "Ask", s.Ask)
	rpc.Handle(m, "SearchFAQs", s.SearchFAQs)
	rpc.Handle(m, "ListFAQs", s.ListFAQs)
	rpc.Handle(m, "Health", s.Health)
	rpc.Handle(m, "ReloadFAQs", s.ReloadFAQs)
	return m.Handler()
}

// Ask answers a question about the app from the FAQ index.
func (s *ChatbotService) Ask(ctx context.Context, req *connect.Request[api.AskRequest]) (*connect.Response[api.AskResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	question := strings.TrimSpace(req.Msg.Question)
	slog.Info("Ask request received", "user_id", userID, "question_length", len(question))

	answer, err := s.bot.Ask(ctx, question, middleware.GetUsername(ctx))
	switch {
	case errors.Is(err, chatbot.ErrEmptyQuestion), errors.Is(err, chatbot.ErrQuestionTooLong):
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, chatbot.ErrUnavailable):
		return nil, connect.NewError(connect.CodeUnavailable, err)
	case err != nil:
		slog.Error("Ask failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("failed to get a response from the assistant"))
	}

	return connect.NewResponse(&api.AskResponse{Question: question, Answer: answer}), nil
}

// SearchFAQs returns FAQs whose question or answer contains the query.
func (s *ChatbotService) SearchFAQs(ctx context.Context, req *connect.Request[api.SearchFAQsRequest]) (*connect.Response[api.SearchFAQsResponse], error) {
	query := strings.TrimSpace(req.Msg.Query)
	slog.Info("SearchFAQs request received", "query", query, "limit", req.Msg.Limit)

	if query == "" {
		return nil, invalidArgument("query required")
	}
	results := s.bot.Index().Search(query, req.Msg.Limit)
	return connect.NewResponse(&api.SearchFAQsResponse{Results: faqsToAPI(results)}), nil
}

// ListFAQs returns every FAQ in the index.
func (s *ChatbotService) ListFAQs(ctx context.Context, req *connect.Request[api.ListFAQsRequest]) (*connect.Response[api.ListFAQsResponse], error) {
	return connect.NewResponse(&api.ListFAQsResponse{FAQs: faqsToAPI(s.bot.Index().FAQs())}), nil
}

// Health reports whether the chatbot can answer questions.
func (s *ChatbotService) Health(ctx context.Context, req *connect.Request[api.HealthRequest]) (*connect.Response[api.HealthResponse], error) {
	status := "unavailable"
	if s.bot.Available() {
		status = "operational"
	}
	return connect.NewResponse(&api.HealthResponse{
		Status:        status,
		FAQCount:      s.bot.Index().Len(),
		LLMConfigured: s.bot.LLMConfigured(),
	}), nil
}

// ReloadFAQs reads the FAQ file again. A failed reload keeps the current FAQs.
func (s *ChatbotService) ReloadFAQs(ctx context.Context, req *connect.Request[api.ReloadFAQsRequest]) (*connect.Response[api.ReloadFAQsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ReloadFAQs request received", "user_id", userID)

	idx, err := s.bot.Reload()
	if errors.Is(err, chatbot.ErrNoFAQPath) {
		return nil, failedPrecondition("%v", err)
	}
	if err != nil {
		slog.Error("ReloadFAQs failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.ReloadFAQsResponse{FAQCount: idx.Len()}), nil
}

func faqsToAPI(faqs []chatbot.FAQ) []*api.FAQ {
	out := make([]*api.FAQ, len(faqs))
	for i, f := range faqs {
		out[i] = &api.FAQ{Question: f.Question, Answer: f.Answer}
	}
	return out
}
