package chatbot

import "strings"

const promptPreamble = `You are a helpful and friendly FAQ assistant for Trip Planner, a travel planning and expense tracking application.

Your role:
- Answer questions based ONLY on the provided FAQ information below
- Be concise and clear (keep answers under 150 words)
- Use a friendly, conversational tone
- If a question is not covered in the FAQs, politely say you don't have that information and suggest contacting support
- For step-by-step instructions, use numbered lists
- Emphasize key points using **bold** text

`

const promptClosing = `
Remember:
- Stay within the FAQ information provided
- Be helpful and encouraging
- Keep answers brief and actionable

User Question: `

// buildPrompt assembles the model prompt. username may be empty.
func buildPrompt(faqContext, question, username string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	if username != "" {
		b.WriteString("\nYou are currently helping user: " + username + "\n")
	}
	b.WriteString("\n" + faqContext + "\n")
	b.WriteString(promptClosing)
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a helpful answer based on the FAQ information above:")
	return b.String()
}
