// Package llm wraps an ADK model in a one-shot prompt-to-text call.
// The dynatrace agent never holds a conversation with the model: every skill
// sends a single instruction plus optional structured context and wants prose
// back.
package llm

import (
	"context"
	"fmt"
	"strings"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Generator produces a single text completion per call.
type Generator struct {
	model adkmodel.LLM
}

// NewGenerator wraps an ADK model.
func NewGenerator(model adkmodel.LLM) *Generator {
	return &Generator{model: model}
}

// Generate sends prompt to the model and returns the concatenated text of the
// final response. system may be empty.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := &adkmodel.LLMRequest{
		Contents: []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: prompt}},
			},
		},
	}
	if system != "" {
		req.Config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			},
		}
	}

	var out strings.Builder
	for resp, err := range g.model.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		// Streaming models may yield partial chunks before the
		// aggregated response; keep only the final one.
		if resp.Partial {
			continue
		}
		out.Reset()
		for _, part := range resp.Content.Parts {
			out.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}
