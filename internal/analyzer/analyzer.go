// Package analyzer calls the text-analysis model that turns a raw job post
// into a cleaned title, cleaned text and a tag list.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/config"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

const systemPrompt = "You are a helpful assistant that extracts structured " +
	"information from job posts. Always respond with valid JSON only."

type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New builds a client for any OpenAI-compatible chat endpoint (Ollama,
// llama.cpp, OpenAI itself) from configuration.
func New(cfg config.OracleConfig, logger *slog.Logger) (*Client, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible servers don't check the token.
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	return &Client{
		llm:         llm,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.With("component", "analyzer"),
	}, nil
}

// Analyze asks the model for cleaned fields. Only a failed model call is an
// error; a response that doesn't parse degrades to fallback fields and still
// succeeds, so the caller can commit it.
func (c *Client) Analyze(ctx context.Context, title, body string) (domain.Enrichment, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildPrompt(title, body))},
		},
	}

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("generate content: %w", err)
	}

	var raw string
	if len(resp.Choices) > 0 {
		raw = resp.Choices[0].Content
	}

	enrichment, parsed := parseResponse(raw, title, body)
	if !parsed {
		c.logger.Warn("model response did not parse, using fallback fields",
			"response_prefix", truncate(raw, 200),
		)
	}
	return enrichment, nil
}

func buildPrompt(title, body string) string {
	return fmt.Sprintf(`You are a job post analyzer. Extract and clean the following information from this job posting.

TITLE: %s

BODY: %s

Please provide your analysis in this EXACT JSON format (no extra text):
{
    "cleaned_title": "A concise, professional version of the title",
    "cleaned_text": "A cleaned summary of the job description with key details",
    "tags": ["tag1", "tag2", "tag3"]
}

Tags should include: job type, experience level, key technologies/skills, remote/location info, and any other relevant categories.

Response:`, title, body)
}
