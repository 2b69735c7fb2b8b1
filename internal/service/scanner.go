package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nutrisnap/backend/config"
)

// NoChangeSentinel is the fixed reply the model is instructed to return when
// it cannot produce a table, or when a revision request has nothing to do
// with food.
const NoChangeSentinel = "NO"

const describePrompt = `I want you to act as an expert at analyzing food in photographs. When I upload a photo of a meal, please:

1. Identify the dish or product. If the image is unclear, describe what you see as the most likely option.

2. Provide approximate nutritional values per 100 grams:
   - Calories (kcal)
   - Protein (g)
   - Fat (g)
   - Carbohydrates (g)
   - Dietary fiber (g)

3. Give the approximate total weight of the portion shown in the photo.

I understand your estimates are approximate and will not use them for medical decisions. If you cannot identify the product precisely, suggest the most likely options and continue the analysis for each of them. Do not refuse the task entirely even if the image is difficult. If the photo contains several products, analyze each of them separately.`

const tabulatePromptFmt = `Please build a Markdown table with exact values for weight, calories, protein, fat and carbohydrates. The protein, fat and carbohydrate columns must contain fractional values separated by a decimal point only. The table must look like this:

|Name|Weight, g|Kcal|Protein, g|Fat, g|Carbs, g|
|----|---------|----|----------|------|--------|
|Dish|100|140|12.2|10.0|1.0|
|TOTAL|100|140|12.2|10.0|1.0|

Use this meal description: %s

Output the table and only the table, with a TOTAL row as the last line. If you cannot build the table, reply %s.`

const revisePromptFmt = `Please apply the changes I describe to the table below and recompute the nutrients.
Table: %s
Changes: %s
The result must be a Markdown table with the columns 'Name', 'Weight, g', 'Kcal', 'Protein, g', 'Fat, g', 'Carbs, g' and a TOTAL row as the last line. Reply with only the edited table, with recomputed nutrients, and nothing else. If the changes contain nothing about food that could alter the table, just reply %s.`

const advicePromptFmt = `Analyze the nutrition table below and compose a short, unique piece of dietary advice from a nutritionist's point of view, one or two sentences, using emoji, considering the balance of calories, protein, fat and carbohydrates. Point out what could be improved to make the diet more balanced.

%s

Advice:`

// Fixed texts the advice stage falls back to instead of surfacing an error.
const (
	adviceInvalidTableMsg = "Error: invalid table format. Make sure the table follows the expected layout."
	adviceUnavailableMsg  = "Could not generate nutrition advice right now."
)

// adviceHeaderToken is the cheap local shape check the advice stage performs
// before spending a model call.
const adviceHeaderToken = "Name"

// Scanner chains the food-recognition pipeline over a chat-completions API:
// photo description, tabulation, revision and advice. A weighted semaphore
// bounds the number of in-flight model calls across all requests.
type Scanner struct {
	apiKey      string
	apiURL      string
	visionModel string
	textModel   string
	client      *http.Client
	sem         *semaphore.Weighted
}

// NewScanner creates a Scanner from the application configuration.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{
		apiKey:      cfg.ModelAPIKey,
		apiURL:      cfg.ModelAPIURL,
		visionModel: cfg.VisionModel,
		textModel:   cfg.TextModel,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		sem: semaphore.NewWeighted(cfg.ScanConcurrency),
	}
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// DescribePhoto asks the vision model for a free-text description of the meal
// at the given URL, covering identified dishes, per-100g values and the
// estimated portion weight.
func (s *Scanner) DescribePhoto(ctx context.Context, imageURL string) (string, error) {
	parts := []contentPart{
		{Type: "text", Text: describePrompt},
		{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
	}
	return s.complete(ctx, s.visionModel, parts)
}

// Tabulate turns a free-text meal description into the Markdown table
// contract, or the sentinel when the model cannot comply.
func (s *Scanner) Tabulate(ctx context.Context, description string) (string, error) {
	parts := []contentPart{
		{Type: "text", Text: fmt.Sprintf(tabulatePromptFmt, description, NoChangeSentinel)},
	}
	return s.complete(ctx, s.textModel, parts)
}

// ScanPhoto runs the two-hop pipeline: description, then tabulation. There is
// no intermediate state; if tabulation fails the whole scan is retried from
// the photo.
func (s *Scanner) ScanPhoto(ctx context.Context, imageURL string) (string, error) {
	description, err := s.DescribePhoto(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("describe photo: %w", err)
	}
	log.Printf("[Scanner] Photo description: %s", description)

	table, err := s.Tabulate(ctx, description)
	if err != nil {
		return "", fmt.Errorf("tabulate description: %w", err)
	}
	return table, nil
}

// Revise recomputes a table under the same column contract given a free-text
// change request. The sentinel comes back when the changes are not about food.
func (s *Scanner) Revise(ctx context.Context, table, changes string) (string, error) {
	parts := []contentPart{
		{Type: "text", Text: fmt.Sprintf(revisePromptFmt, table, changes, NoChangeSentinel)},
	}
	return s.complete(ctx, s.textModel, parts)
}

// Advice produces a short recommendation from a completed table. This is the
// only stage with local error recovery: a failed shape check or model call
// yields a fixed fallback text, never an error.
func (s *Scanner) Advice(ctx context.Context, table string) string {
	if !strings.Contains(table, adviceHeaderToken) {
		log.Printf("[Scanner] Advice input failed table shape check")
		return adviceInvalidTableMsg
	}

	parts := []contentPart{
		{Type: "text", Text: fmt.Sprintf(advicePromptFmt, table)},
	}
	advice, err := s.complete(ctx, s.textModel, parts)
	if err != nil {
		log.Printf("[Scanner] Advice generation failed: %v", err)
		return adviceUnavailableMsg
	}
	return advice
}

// IsSentinel reports whether the model replied with the no-op token.
func IsSentinel(text string) bool {
	return strings.TrimSpace(text) == NoChangeSentinel
}

// complete performs one chat-completions call under the concurrency limit.
// The returned text has literal asterisks stripped so stray bold markers do
// not leak into the table contract.
func (s *Scanner) complete(ctx context.Context, model string, parts []contentPart) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire model slot: %w", err)
	}
	defer s.sem.Release(1)

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: parts},
		},
		MaxTokens: 1000,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Scanner] API request failed with status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return strings.ReplaceAll(result.Choices[0].Message.Content, "*", ""), nil
}
