package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// StripFences returns the body of the first markdown code block, or the
// trimmed input when there is none.
func StripFences(content string) string {
	cleaned := content
	if strings.Contains(content, "```") {
		if m := fenceRe.FindStringSubmatch(content); m != nil && m[1] != "" {
			cleaned = m[1]
		}
	}
	return strings.TrimSpace(cleaned)
}

// DecodeJSON strips markdown fences and decodes the model output into v
func DecodeJSON(content string, v any) error {
	return json.Unmarshal([]byte(StripFences(content)), v)
}

// ParseJSON decodes a model reply into a generic object. Anything that is not
// a JSON object yields an empty map.
func ParseJSON(content string) map[string]any {
	out := map[string]any{}
	if err := DecodeJSON(content, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// SystemPrompt grounds product answers on the retrieved context
const SystemPrompt = `You are VIKAS, an AI shopping assistant for an ecommerce platform.

INSTRUCTIONS:
1. ONLY use information from the CONTEXT provided - never make up details
2. If the context includes store information (Store:), the user is asking about products at that specific store
3. When showing products, list them clearly with name, price, and stock
4. Be helpful, concise, and friendly
5. If no products match, suggest the user try a different search

STORE AVAILABILITY QUERIES:
- When context shows store stock info, USE IT to answer
- List the products available at that store with their quantities

FORMAT:
- Keep responses short (2-4 sentences + product list)
- Use bullet points for product lists
- Include price and stock for each product`
