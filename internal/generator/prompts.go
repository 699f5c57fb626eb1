package generator

import (
	"encoding/json"
	"fmt"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"
)

const dropsSystemPrompt = `You are the AI of an underground dating network.
Produce striking, short, punk-styled notes and profiles for users.
Notes may be flirty, mysterious or rebellious. Keep an 18+ atmosphere.`

const loreSystemPrompt = `You are the AI of an underground intelligence network.
For the given location produce short, striking facts in a cyberpunk atmosphere.
Include details such as danger level, vibe and authority status.`

func dropsPrompt(near geo.Point, n int) string {
	return fmt.Sprintf("Generate %d mysterious cyberpunk dating boxes around the location (%v, %v).", n, near.Lat, near.Lng)
}

func replySystemPrompt(p models.Profile, history []models.ChatMessage) string {
	h, err := json.Marshal(history)
	if err != nil {
		h = []byte("[]")
	}
	return fmt.Sprintf(`You are a cyberpunk character named %s, %d years old, %s.
Your character: %s.
You are talking to the user in a dating app.
Give short, striking, slightly mysterious answers that fit the punk spirit.
Chat history: %s.`, p.Name, p.Age, p.Gender, p.Bio, h)
}

func replyPrompt(message string) string {
	return "User: " + message
}

func lorePrompt(location string) string {
	return fmt.Sprintf("Location: %s. Produce a short lore set in a cyberpunk/punk universe for this location.", location)
}

// Response schemas in the generation API's own dialect
var (
	dropsResponseSchema = map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"name":   map[string]any{"type": "STRING"},
				"age":    map[string]any{"type": "NUMBER"},
				"gender": map[string]any{"type": "STRING", "enum": []string{"Male", "Female", "Trans"}},
				"bio":    map[string]any{"type": "STRING"},
				"note":   map[string]any{"type": "STRING"},
			},
			"required": []string{"name", "age", "gender", "bio", "note"},
		},
	}

	loreResponseSchema = map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"summary":     map[string]any{"type": "STRING"},
			"vibe":        map[string]any{"type": "STRING"},
			"status":      map[string]any{"type": "STRING"},
			"dangerLevel": map[string]any{"type": "STRING", "enum": []string{"EXTREME", "HIGH", "MEDIUM", "LOW"}},
		},
		"required": []string{"summary", "vibe", "status", "dangerLevel"},
	}
)
