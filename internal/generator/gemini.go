package generator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient generates content through the Gemini generateContent API
type GeminiClient struct {
	apiKey string
	model  string
	http   *resty.Client
}

// NewGeminiClient creates a client for model. An empty baseURL selects the
// public endpoint.
func NewGeminiClient(apiKey, baseURL, model string, timeout time.Duration) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		return nil, fmt.Errorf("gemini model required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{apiKey: apiKey, model: model, http: client}, nil
}

// FakeDrops asks for n synthetic profiles with notes near a point
func (c *GeminiClient) FakeDrops(ctx context.Context, near geo.Point, n int) Result[[]FakeDrop] {
	text, err := c.generate(ctx, dropsSystemPrompt, dropsPrompt(near, n), dropsResponseSchema)
	if err != nil {
		return failure[[]FakeDrop](err, "fake_drops")
	}

	var raw []struct {
		Name   string  `json:"name"`
		Age    float64 `json:"age"`
		Gender string  `json:"gender"`
		Bio    string  `json:"bio"`
		Note   string  `json:"note"`
	}
	if err := decodeStructured(text, dropsSchema, &raw); err != nil {
		return failure[[]FakeDrop](err, "fake_drops")
	}

	drops := make([]FakeDrop, 0, len(raw))
	for _, r := range raw {
		drops = append(drops, FakeDrop{
			Name:   r.Name,
			Age:    int(math.Round(r.Age)),
			Gender: models.Gender(r.Gender),
			Bio:    r.Bio,
			Note:   r.Note,
		})
	}
	return Success(drops)
}

// Reply generates the participant's answer to message
func (c *GeminiClient) Reply(ctx context.Context, participant models.Profile, history []models.ChatMessage, message string) Result[string] {
	text, err := c.generate(ctx, replySystemPrompt(participant, history), replyPrompt(message), nil)
	if err != nil {
		return failure[string](err, "reply")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return failure[string](fmt.Errorf("empty reply"), "reply")
	}
	return Success(text)
}

// Lore generates flavor text for a named place
func (c *GeminiClient) Lore(ctx context.Context, location string) Result[models.LoreData] {
	text, err := c.generate(ctx, loreSystemPrompt, lorePrompt(location), loreResponseSchema)
	if err != nil {
		return failure[models.LoreData](err, "lore")
	}

	var raw struct {
		Summary     string `json:"summary"`
		Vibe        string `json:"vibe"`
		Status      string `json:"status"`
		DangerLevel string `json:"dangerLevel"`
	}
	if err := decodeStructured(text, loreSchema, &raw); err != nil {
		return failure[models.LoreData](err, "lore")
	}
	return Success(models.LoreData{
		Summary:     raw.Summary,
		Vibe:        raw.Vibe,
		Status:      raw.Status,
		DangerLevel: models.DangerLevel(raw.DangerLevel),
	})
}

func failure[T any](err error, call string) Result[T] {
	log.Warn().Err(err).Str("call", call).Msg("Generation failed")
	return Failure[T](err.Error())
}

// generate sends one generateContent request and returns the joined text
// of the first candidate
func (c *GeminiClient) generate(ctx context.Context, systemPrompt, userPrompt string, responseSchema map[string]any) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: userPrompt}},
		}},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	if responseSchema != nil {
		reqBody.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		}
	}

	var out generateResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(reqBody).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini api error: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini api error: %s", resp.Status())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
