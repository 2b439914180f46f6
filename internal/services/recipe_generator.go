package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const (
	deepSeekAPIURL = "https://api.deepseek.com/chat/completions"
	deepSeekModel  = "deepseek-chat"
)

// RecipeGenerator turns a free-text idea into a structured draft. Any failure is
// final for that attempt; callers surface it and let the user retry.
type RecipeGenerator interface {
	Generate(ctx context.Context, idea string) (*models.RecipeDraft, error)
}

const draftSystemPrompt = `You are a professional chef. Always respond in JSON format.
Requirements:
1. Language: Chinese (Simplified).
2. Category must be one of: "早餐", "正餐", "小食/甜点", "饮品", "其他".
3. Generate 2-4 short tags.`

func draftUserPrompt(idea string) string {
	return fmt.Sprintf(`Create a structured recipe for: %q.
Return the result in this JSON structure:
{
  "title": "string",
  "description": "string",
  "category": "string",
  "tags": ["string"],
  "ingredients": [{"name": "string", "amount": "string"}],
  "steps": ["string"]
}`, idea)
}

// parseDraft decodes a model reply, tolerating a fenced code block around the JSON.
func parseDraft(content string) (*models.RecipeDraft, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("no content generated")
	}

	var draft models.RecipeDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode recipe draft: %w", err)
	}
	draft = draft.Normalize()
	if draft.Title == "" {
		return nil, fmt.Errorf("recipe draft has no title")
	}
	return &draft, nil
}

// DeepSeekGenerator calls the DeepSeek chat completions API in JSON mode.
type DeepSeekGenerator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewDeepSeekGenerator(apiKey string) *DeepSeekGenerator {
	return &DeepSeekGenerator{
		apiKey:   apiKey,
		endpoint: deepSeekAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithEndpoint points the generator at another OpenAI-compatible endpoint.
func (g *DeepSeekGenerator) WithEndpoint(url string) *DeepSeekGenerator {
	g.endpoint = url
	return g
}

func (g *DeepSeekGenerator) Generate(ctx context.Context, idea string) (*models.RecipeDraft, error) {
	if g.apiKey == "" {
		return nil, ErrGeneratorUnavailable
	}

	reqBody := map[string]interface{}{
		"model": deepSeekModel,
		"messages": []map[string]string{
			{"role": "system", "content": draftSystemPrompt},
			{"role": "user", "content": draftUserPrompt(idea)},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepseek api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no content generated")
	}
	return parseDraft(completion.Choices[0].Message.Content)
}
