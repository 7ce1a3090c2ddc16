package api

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SearchFAQsRequest struct {
	Query string `json:"query"`

	// Limit defaults to 5.
	Limit int `json:"limit,omitempty"`
}

type SearchFAQsResponse struct {
	Results []*FAQ `json:"results"`
}

type ListFAQsRequest struct{}

type ListFAQsResponse struct {
	FAQs []*FAQ `json:"faqs"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status        string `json:"status"`
	FAQCount      int    `json:"faq_count"`
	LLMConfigured bool   `json:"llm_configured"`
}

type ReloadFAQsRequest struct{}

type ReloadFAQsResponse struct {
	FAQCount int `json:"faq_count"`
}
