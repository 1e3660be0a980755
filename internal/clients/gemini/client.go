// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

const (
	DefaultModel   = "gemini-3-flash-preview"
	DefaultMaxURLs = 10
)

// Client implements the CommentaryClient interface
type Client struct {
	client  *genai.Client
	model   string
	maxURLs int
	logger  *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxURLs sets the maximum filing URLs passed as context
func WithMaxURLs(maxURLs int) ClientOption {
	return func(c *Client) {
		c.maxURLs = maxURLs
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:  genaiClient,
		model:   DefaultModel,
		maxURLs: DefaultMaxURLs,
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// generate runs a plain prompt against the model.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating commentary")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// generateWithURLContext runs a prompt with Gemini's URL context tool so the
// model can read the referenced filings.
func (c *Client) generateWithURLContext(ctx context.Context, prompt string, urls []string) (string, error) {
	c.logger.Debug().Str("model", c.model).Int("urls", len(urls)).Msg("Generating commentary with filing context")

	var sb strings.Builder
	sb.WriteString("Reference URLs:\n")
	for _, u := range urls {
		sb.WriteString("- ")
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(prompt)

	contents := genai.Text(sb.String())
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{URLContext: &genai.URLContext{}}},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with URL context: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// ScreenCommentary generates a short value-investing thesis for one screening
// result. Filing links, when provided, are handed to the model as reading
// context.
func (c *Client) ScreenCommentary(ctx context.Context, result *models.ScreeningResult, profile *models.CompanyProfile, filings []models.Filing) (string, error) {
	prompt := buildCommentaryPrompt(result, profile)

	urls := make([]string, 0, len(filings))
	for _, f := range filings {
		if f.DocumentURL == "" {
			continue
		}
		urls = append(urls, f.DocumentURL)
		if len(urls) >= c.maxURLs {
			break
		}
	}

	if len(urls) > 0 {
		return c.generateWithURLContext(ctx, prompt, urls)
	}
	return c.generate(ctx, prompt)
}

// buildCommentaryPrompt creates a prompt for screening commentary
func buildCommentaryPrompt(result *models.ScreeningResult, profile *models.CompanyProfile) string {
	name := result.Ticker
	if profile != nil && profile.Name != "" {
		name = fmt.Sprintf("%s (%s)", profile.Name, result.Ticker)
	}

	prompt := fmt.Sprintf(`You are a conservative value analyst in the Benjamin Graham tradition.
Write a brief two-paragraph investment note for %s. First paragraph: why the
company passed or failed the screen. Second paragraph: the main risks to the
valuation. Be factual and restrained; no price targets, no recommendations.

`, name)

	if profile != nil && profile.Sector != "" {
		prompt += fmt.Sprintf("Sector: %s / %s\n", profile.Sector, profile.Industry)
	}

	prompt += fmt.Sprintf(`
Screen Result:
- Qualifies: %t
- Composite Score: %.1f / 100
- Current Price: $%.2f
`, result.Qualifies, result.CompositeScore, result.Price)

	if result.IntrinsicValue != nil {
		prompt += fmt.Sprintf("- Intrinsic Value: $%.2f (confidence %.0f%%)\n", *result.IntrinsicValue, result.Confidence*100)
	}
	if result.MarginOfSafety != nil {
		prompt += fmt.Sprintf("- Margin of Safety: %.0f%%\n", *result.MarginOfSafety*100)
	}

	for _, est := range result.Estimates {
		if est.Defined() {
			prompt += fmt.Sprintf("- %s estimate: $%.2f\n", est.Method, *est.Value)
		} else {
			prompt += fmt.Sprintf("- %s estimate: unavailable (%s)\n", est.Method, est.Detail)
		}
	}

	if len(result.Criteria) > 0 {
		prompt += "\nCriteria:\n"
		for _, criterion := range result.Criteria {
			status := "FAIL"
			if criterion.Passed {
				status = "PASS"
			}
			if !criterion.Defined {
				status = "UNDEFINED"
			}
			prompt += fmt.Sprintf("- %s: %s\n", criterion.Name, status)
		}
	}

	prompt += "\nKeep the note under 180 words."

	return prompt
}

// Ensure Client implements CommentaryClient
var _ interfaces.CommentaryClient = (*Client)(nil)
