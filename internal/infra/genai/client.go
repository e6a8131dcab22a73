// Package genai drafts multiple-choice questions with the Gemini
// generateContent REST endpoint.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lessonloop/internal/domain"
	"lessonloop/internal/validation"
)

const promptTemplate = `You are an expert quiz creator. Generate %d multiple-choice questions about %s for a %s grade level, with a difficulty of %s. ` +
	`Each question must have exactly 4 options. Your response must be a valid, parsable JSON array of objects. ` +
	`Each object in the array must have the following properties and types: 'questionText' (string), ` +
	`'options' (an array of exactly 4 objects, each with a 'text' property of type string), ` +
	`'correctAnswer' (the 0-based index of the correct option, must be a number between 0 and 3), ` +
	`and 'explanation' (a brief explanation for why the correct answer is correct). ` +
	`Return ONLY the JSON array. Do not include any extra text, explanations, or formatting outside of the JSON array.`

// Client calls the generative model.
type Client struct {
	apiKey    string
	model     string
	baseURL   string
	http      *http.Client
	validator *validation.Validator
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration, v *validation.Validator) *Client {
	return &Client{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		validator: v,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for req.NumQuestions questions and checks every
// returned question against the expected schema.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.GeneratedQuestion, error) {
	if c.apiKey == "" {
		return nil, domain.Upstream("Failed to generate MCQs", fmt.Errorf("api key not configured"))
	}
	prompt := fmt.Sprintf(promptTemplate, req.NumQuestions, req.Topic, req.GradeLevel, req.Difficulty)
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, domain.Upstream("Failed to generate MCQs", err)
	}
	return c.parse(text)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("status %d: unreadable response", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var sb strings.Builder
	if len(decoded.Candidates) > 0 {
		for _, p := range decoded.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}

func (c *Client) parse(text string) ([]domain.GeneratedQuestion, error) {
	text = stripFence(text)

	var questions []domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, domain.Validation("Failed to generate questions: AI response is not a JSON array of questions")
	}
	for i := range questions {
		if err := c.validator.Generated(questions[i]); err != nil {
			return nil, domain.Validation(fmt.Sprintf("Failed to generate questions: question %d does not match the expected schema: %s", i+1, domain.MessageOf(err)))
		}
	}
	return questions, nil
}

// stripFence removes a surrounding ``` or ```json markdown fence.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}
