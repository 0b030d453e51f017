// Package genai is the text-completion client for the hosted generative
// language API. The conversation service talks to it through tagged
// operations (Greet / Reply / Summarize) rather than sentinel message
// strings; the sentinels live here, at the wire boundary.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat_practice_service/internal/domain"
	"chat_practice_service/pkg/utils"
)

// Wire sentinels understood by the completion endpoint contract.
const (
	greetingSentinel = "START_CONVERSATION_GREETING"
	summarySentinel  = "GENERATE_FEEDBACK_SUMMARY"
)

// ErrOverloaded marks the transient "service overloaded" failure class.
// Only this class is retried.
var ErrOverloaded = errors.New("model is overloaded")

// ErrMalformedOutput marks an unparsable structured response. Not retried.
var ErrMalformedOutput = errors.New("malformed model output")

func IsOverloaded(err error) bool {
	return errors.Is(err, ErrOverloaded)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 7
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// RetryBudget is the worst case wall time one completion can take: every
// attempt running to the per-request timeout, plus the backoff sleeps in
// between (2^i * baseDelay each, with up to one extra baseDelay of jitter).
func (c *Client) RetryBudget() time.Duration {
	budget := time.Duration(c.cfg.MaxRetries) * c.cfg.Timeout
	for i := 0; i < c.cfg.MaxRetries-1; i++ {
		budget += time.Duration(1<<i+1) * c.cfg.BaseDelay
	}
	return budget
}

// Greet requests the character's single opening message: empty prior
// history, the greeting sentinel as the user part.
func (c *Client) Greet(ctx context.Context, p PromptContext) (string, error) {
	return c.complete(ctx, p.systemInstruction(), nil, greetingSentinel)
}

// Reply sends the full history plus the student's new message and returns
// the character's next turn.
func (c *Client) Reply(ctx context.Context, p PromptContext, history []domain.Turn, message string) (string, error) {
	return c.complete(ctx, p.systemInstruction(), history, message)
}

// Summarize turns a finished transcript into the structured feedback
// summary. A response that cannot be parsed into the expected shape is a
// hard error; the request is not retried for that.
func (c *Client) Summarize(ctx context.Context, p PromptContext, history []domain.Turn) (*domain.FeedbackSummary, error) {
	text, err := c.CompleteOneShot(ctx, p.feedbackPrompt(history))
	if err != nil {
		return nil, err
	}

	var summary domain.FeedbackSummary
	if err := decodeFenced(text, &summary); err != nil {
		return nil, err
	}
	if len(summary.Strengths) != 3 || len(summary.Improvements) != 3 {
		return nil, fmt.Errorf("%w: expected 3 strengths and 3 improvements, got %d/%d",
			ErrMalformedOutput, len(summary.Strengths), len(summary.Improvements))
	}
	return &summary, nil
}

// AssignmentOverview analyzes feedback across all students of one
// assignment.
func (c *Client) AssignmentOverview(ctx context.Context, feedback []StudentFeedback) (*domain.CohortOverview, error) {
	return c.overview(ctx, assignmentOverviewPrompt(feedback))
}

// StudentOverview analyzes one student's feedback across assignments.
func (c *Client) StudentOverview(ctx context.Context, feedback []StudentFeedback) (*domain.CohortOverview, error) {
	return c.overview(ctx, studentOverviewPrompt(feedback))
}

func (c *Client) overview(ctx context.Context, prompt string) (*domain.CohortOverview, error) {
	text, err := c.CompleteOneShot(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var overview domain.CohortOverview
	if err := decodeFenced(text, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// CompleteOneShot runs a single prompt with no chat context.
func (c *Client) CompleteOneShot(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil, summarySentinel)
}

func (c *Client) complete(ctx context.Context, systemInstruction string, history []domain.Turn, message string) (string, error) {
	reqBody := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents:          wireHistory(history, message),
	}

	return utils.RetryWithBackoff(ctx, c.cfg.MaxRetries, c.cfg.BaseDelay, IsOverloaded, func() (string, error) {
		return c.generateContent(ctx, reqBody)
	})
}

// wireHistory converts turns to the wire roles, drops a leading assistant
// turn (the API rejects histories that open with the model), and appends
// the new user message.
func wireHistory(history []domain.Turn, message string) []content {
	if len(history) > 0 && history[0].Role == domain.TurnRoleAssistant {
		history = history[1:]
	}

	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.TurnRoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Text}}})
	}
	return append(contents, content{Role: "user", Parts: []part{{Text: message}}})
}

func (c *Client) generateContent(ctx context.Context, reqBody generateContentRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("genai: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("genai: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyAPIError(resp.StatusCode, body)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("genai: failed to decode response: %w", err)
	}

	text := parsed.text()
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedOutput)
	}
	return text, nil
}

func classifyAPIError(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Error.Message
	if statusCode == http.StatusServiceUnavailable || strings.Contains(strings.ToLower(message), "overloaded") {
		return fmt.Errorf("%w: status %d: %s", ErrOverloaded, statusCode, message)
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return fmt.Errorf("genai: completion failed: status %d: %s", statusCode, message)
}

type generateContentRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
