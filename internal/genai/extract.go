package genai

import "encoding/json"

// Fallback strings substituted when the service responds without usable text.
// These mirror the copy shown to end users, which differs per endpoint.
const (
	FallbackNoResponse = "No response received"
	FallbackTryAgain   = "I couldn't generate a response. Please try again."
)

// generateResponse mirrors the nesting of a generateContent response. Every
// level is optional; absent fields simply decode to their zero values.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content candidateContent `json:"content"`
}

type candidateContent struct {
	Parts []candidatePart `json:"parts"`
}

type candidatePart struct {
	Text string `json:"text"`
}

// ExtractText returns the first non-empty generated text found in body, or
// fallback when the body is malformed, empty, or contains no text. It is a
// pure function: same body, same result.
func ExtractText(body []byte, fallback string) string {
	var res generateResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return fallback
	}

	for _, cand := range res.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return fallback
}
