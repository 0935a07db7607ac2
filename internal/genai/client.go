// Package genai is the client for the hosted generative-inference service,
// speaking the Gemini generateContent REST contract.
package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const requestTimeout = 60 * time.Second

// Attachment is the transport form of an uploaded image: raw bytes plus the
// mime type reported by the client, passed through unchanged.
type Attachment struct {
	MimeType string
	Data     []byte
}

// Wire types for the generateContent request body.
type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Client struct {
	client      *resty.Client
	apiKey      string
	textModel   string
	visionModel string
}

// NewClient creates a client for the inference service. Requests with an
// attachment go to visionModel, text-only requests to textModel. A single
// retry is attempted on transport errors only; HTTP error statuses are never
// retried.
func NewClient(baseURL, apiKey, textModel, visionModel string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(1).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil
		})

	return &Client{
		client:      client,
		apiKey:      apiKey,
		textModel:   textModel,
		visionModel: visionModel,
	}
}

// Generate sends one composed prompt, with an optional attachment, and
// returns the raw response body. Callers extract the generated text with
// ExtractText.
func (c *Client) Generate(ctx context.Context, promptText string, attachment *Attachment) ([]byte, error) {
	if promptText == "" {
		return nil, fmt.Errorf("prompt text must not be empty")
	}

	parts := []requestPart{{Text: promptText}}
	model := c.textModel
	if attachment != nil {
		if len(attachment.Data) == 0 {
			return nil, fmt.Errorf("attachment has no data")
		}
		parts = append(parts, requestPart{
			InlineData: &inlineData{
				MimeType: attachment.MimeType,
				Data:     base64.StdEncoding.EncodeToString(attachment.Data),
			},
		})
		model = c.visionModel
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(generateRequest{Contents: []requestContent{{Parts: parts}}}).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", model))

	if err != nil {
		return nil, fmt.Errorf("unable to reach inference service: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("inference service returned status %d: %s", res.StatusCode(), res.String())
	}

	return res.Body(), nil
}
