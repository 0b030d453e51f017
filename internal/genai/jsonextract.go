package genai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes surrounding markdown code-fence markers from a
// model response, leaving the inner payload. Responses both with and
// without fences pass through unchanged otherwise.
func StripCodeFence(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// decodeFenced strips any code fence and unmarshals the remainder. A parse
// failure is a hard error for the call.
func decodeFenced(text string, v interface{}) error {
	cleaned := StripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
