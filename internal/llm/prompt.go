package llm

import (
	"fmt"
	"strings"
	"time"
)

const promptTemplate = `You are a smart order assistant. Extract the following information from the email below and return the result as JSON.

- Always format dates as "YYYY-MM-DD" (ISO 8601).
- The measuring unit is almost always pieces unless stated otherwise, so "10 breads" is product "bread" with quantity 10 pieces.
- Translate relative terms like "tomorrow", "Tuesday" or "next week" to a real date, counting from today: %s.
- The order_date is the date the email was sent: %s. Use it verbatim, do not derive it from the email text.
- If a date is not mentioned, use null.
- Do not use Markdown, no code blocks, only the JSON itself.

Email:
"""
%s
"""

Answer in exactly this JSON format:

{
  "order_number": null,
  "customer_name": "...",
  "order_date": "YYYY-MM-DD",
  "special_notes": "...",
  "products": [
    {
      "name": "...",
      "quantity": ...,
      "unit": "...",
      "delivery_date": "YYYY-MM-DD"
    }
  ]
}`

// BuildPrompt renders the deterministic extraction prompt. today anchors
// relative dates in the body; sentAt is the email's own sent date, which
// the model is instructed to use verbatim as order_date.
func BuildPrompt(body string, sentAt, today time.Time) string {
	return fmt.Sprintf(promptTemplate,
		today.Format("2006-01-02"),
		sentAt.Format("2006-01-02"),
		body)
}

// CleanJSONOutput strips a fenced code block from a model completion. The
// model may wrap its JSON in triple backticks with an optional language
// tag; anything without a leading fence passes through unchanged.
func CleanJSONOutput(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	stripped := strings.Trim(strings.TrimSpace(raw), "`")
	lines := strings.Split(stripped, "\n")
	if len(lines) > 0 && (strings.HasPrefix(lines[0], "json") || strings.TrimSpace(lines[0]) == "") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}
