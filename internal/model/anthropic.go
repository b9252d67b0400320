// Package model adapts the Anthropic SDK to the ADK model.LLM interface.
// Dynagent agents only exchange text with the model, so the adapter skips
// tool-call and media conversion entirely.
package model

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

// AnthropicModel implements the adkmodel.LLM interface for Anthropic Claude.
type AnthropicModel struct {
	client    anthropic.Client
	modelName string
}

// NewAnthropicModel creates a new Anthropic model client.
func NewAnthropicModel(ctx context.Context, modelName, apiKey string) (*AnthropicModel, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicModel{
		client:    client,
		modelName: modelName,
	}, nil
}

// Name returns the model name.
func (m *AnthropicModel) Name() string {
	return m.modelName
}

// GenerateContent implements the adkmodel.LLM interface. Streaming requests
// are served non-streaming: responses here are short prose, a single final
// chunk is indistinguishable to the caller.
func (m *AnthropicModel) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		params, err := m.convertRequest(req)
		if err != nil {
			yield(nil, fmt.Errorf("failed to convert request: %w", err))
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			slog.Error("anthropic API error", "err", err)
			yield(nil, fmt.Errorf("anthropic API error: %w", err))
			return
		}

		yield(m.convertResponse(resp), nil)
	}
}

// convertRequest maps an ADK LLMRequest onto Anthropic message params.
func (m *AnthropicModel) convertRequest(req *adkmodel.LLMRequest) (anthropic.MessageNewParams, error) {
	var messages []anthropic.MessageParam
	for _, content := range req.Contents {
		msg, ok := m.convertContent(content)
		if ok {
			messages = append(messages, msg)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		Messages:  messages,
		MaxTokens: 4096,
	}

	if req.Config != nil {
		if req.Config.SystemInstruction != nil {
			var system []anthropic.TextBlockParam
			for _, part := range req.Config.SystemInstruction.Parts {
				if part.Text != "" {
					system = append(system, anthropic.TextBlockParam{Text: part.Text})
				}
			}
			params.System = system
		}
		if req.Config.Temperature != nil {
			params.Temperature = anthropic.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens != 0 {
			params.MaxTokens = int64(req.Config.MaxOutputTokens)
		}
	}

	return params, nil
}

// convertContent converts a genai.Content into an Anthropic message,
// keeping only text parts. Returns false if nothing remains.
func (m *AnthropicModel) convertContent(content *genai.Content) (anthropic.MessageParam, bool) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range content.Parts {
		if part.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	if len(blocks) == 0 {
		return anthropic.MessageParam{}, false
	}

	if content.Role == "model" || content.Role == "assistant" {
		return anthropic.NewAssistantMessage(blocks...), true
	}
	return anthropic.NewUserMessage(blocks...), true
}

func (m *AnthropicModel) convertResponse(resp *anthropic.Message) *adkmodel.LLMResponse {
	var parts []*genai.Part
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, &genai.Part{Text: block.Text})
		}
	}

	finishReason := genai.FinishReasonStop
	if resp.StopReason == "max_tokens" {
		finishReason = genai.FinishReasonMaxTokens
	}

	return &adkmodel.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		FinishReason: finishReason,
		TurnComplete: true,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.InputTokens),
			CandidatesTokenCount: int32(resp.Usage.OutputTokens),
			TotalTokenCount:      int32(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}
