package chat

import (
	"regexp"
	"strings"

	"github.com/i474232898/farm-advisor/internal/gemini"
)

const (
	weatherOpen  = "[WEATHER CONTEXT]"
	weatherClose = "[/WEATHER CONTEXT]"
)

// SystemInstruction is the assistant persona sent with every request.
const SystemInstruction = `You are an agricultural assistant for farmers. Farmers ask about fertilizer, crop health, pests, irrigation, rain and weather, market prices and carbon credits.

Rules:
- Answer in simple, practical language a farmer can act on today. Prefer short steps and concrete quantities with units.
- Reply in the language the farmer used (English, Hindi or Punjabi).
- Use the earlier conversation to understand follow-up questions.
- If you are unsure, say so and suggest contacting the local agriculture extension office.
- Do not give advice on topics unrelated to farming, livestock or rural livelihoods.
- A message may start with a ` + weatherOpen + ` ... ` + weatherClose + ` block. It holds current conditions at the farmer's location. Use it to ground your advice, but never quote, repeat or mention the block or its markers.`

// PromptConfig holds the sampling parameters for a request.
type PromptConfig struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
}

// DefaultPromptConfig keeps the output short and close to deterministic.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		MaxOutputTokens: 1024,
		Temperature:     0.3,
		TopP:            0.8,
		TopK:            40,
	}
}

var safetySettings = []gemini.SafetySetting{
	{Category: gemini.HarmCategoryHarassment, Threshold: gemini.BlockMediumAndAbove},
	{Category: gemini.HarmCategoryHateSpeech, Threshold: gemini.BlockMediumAndAbove},
	{Category: gemini.HarmCategorySexuallyExplicit, Threshold: gemini.BlockMediumAndAbove},
	{Category: gemini.HarmCategoryDangerousContent, Threshold: gemini.BlockMediumAndAbove},
}

// BuildPrompt assembles a generateContent request from the history, the new
// question and an optional weather summary. It does not modify its inputs.
func BuildPrompt(cfg PromptConfig, history []Turn, question, weatherSummary string) *gemini.GenerateRequest {
	contents := make([]gemini.Content, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, gemini.Content{
			Role:  string(t.Role),
			Parts: []gemini.Part{{Text: t.Text}},
		})
	}

	current := question
	if s := strings.TrimSpace(weatherSummary); s != "" {
		current = weatherOpen + "\n" + s + "\n" + weatherClose + "\n\n" + question
	}
	contents = append(contents, gemini.Content{
		Role:  string(RoleUser),
		Parts: []gemini.Part{{Text: current}},
	})

	settings := make([]gemini.SafetySetting, len(safetySettings))
	copy(settings, safetySettings)

	return &gemini.GenerateRequest{
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: SystemInstruction}}},
		Contents:          contents,
		GenerationConfig: gemini.GenerationConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
		},
		SafetySettings: settings,
	}
}

var annotationRe = regexp.MustCompile(`(?s)\[WEATHER CONTEXT\].*?\[/WEATHER CONTEXT\]|\[/?WEATHER CONTEXT\]`)

// StripAnnotation removes any weather block or stray marker the model echoed.
func StripAnnotation(reply string) string {
	if !strings.Contains(reply, "WEATHER CONTEXT]") {
		return reply
	}
	return strings.TrimSpace(annotationRe.ReplaceAllString(reply, ""))
}
