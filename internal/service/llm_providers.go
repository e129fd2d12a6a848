package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/yeonho/movie-suggester-go/internal/constants"
	"github.com/yeonho/movie-suggester-go/internal/prompt"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// LLMProvider is the single model capability the gateway depends on. One
// concrete implementation is active per process, selected by config.
type LLMProvider interface {
	Name() string
	Complete(ctx context.Context, payload prompt.Payload) (string, error)
	Stream(ctx context.Context, payload prompt.Payload, onChunk func(string)) (string, error)
}

// GeminiProvider generates suggestions with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) generateConfig(payload prompt.Payload) *genai.GenerateContentConfig {
	temp := constants.LLMConfig.Temperature
	topP := constants.LLMConfig.TopP
	topK := float32(constants.LLMConfig.TopK)

	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: int32(constants.LLMConfig.MaxOutputTokens),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: payload.System},
			},
		},
	}
}

func (g *GeminiProvider) contents(payload prompt.Payload) []*genai.Content {
	return []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: payload.User},
			},
		},
	}
}

func (g *GeminiProvider) Complete(ctx context.Context, payload prompt.Payload) (string, error) {
	g.logger.Debug("Generating with Gemini", zap.String("model", g.model))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents(payload), g.generateConfig(payload))
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return "", err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return text, nil
}

func (g *GeminiProvider) Stream(ctx context.Context, payload prompt.Payload, onChunk func(string)) (string, error) {
	g.logger.Debug("Streaming with Gemini", zap.String("model", g.model))

	var builder strings.Builder
	finished := false

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, g.contents(payload), g.generateConfig(payload)) {
		if err != nil {
			g.logger.Error("Gemini stream failed", zap.Error(err))
			return "", err
		}

		if text := extractTextFromGeminiResponse(resp); text != "" {
			builder.WriteString(text)
			onChunk(text)
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			finished = true
		}
	}

	if !finished {
		return "", errs.NewIncompleteStreamError("Gemini stream ended without a completion signal", nil)
	}

	return builder.String(), nil
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}

// OpenAIProvider is the alternative model backend, selected with
// LLM_PROVIDER=openai.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIProvider(apiKey, model string, logger *zap.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4.1-mini"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
		model:  model,
		logger: logger,
	}, nil
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) params(payload prompt.Payload) openai.ChatCompletionNewParams {
	var model openai.ChatModel
	switch o.model {
	case "gpt-5-mini":
		model = openai.ChatModelGPT5Mini
	case "gpt-5":
		model = openai.ChatModelGPT5
	case "gpt-5-nano":
		model = openai.ChatModelGPT5Nano
	case "gpt-4.1":
		model = openai.ChatModelGPT4_1
	case "gpt-4.1-mini":
		model = openai.ChatModelGPT4_1Mini
	case "gpt-4.1-nano":
		model = openai.ChatModelGPT4_1Nano
	case "gpt-4o":
		model = openai.ChatModelGPT4o
	case "gpt-4o-mini":
		model = openai.ChatModelGPT4oMini
	default:
		model = openai.ChatModelGPT4_1Mini
	}

	return openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(payload.System),
			openai.UserMessage(payload.User),
		},
		MaxCompletionTokens: openai.Int(int64(constants.LLMConfig.MaxOutputTokens)),
		Temperature:         openai.Float(float64(constants.LLMConfig.Temperature)),
		TopP:                openai.Float(float64(constants.LLMConfig.TopP)),
	}
}

func (o *OpenAIProvider) Complete(ctx context.Context, payload prompt.Payload) (string, error) {
	o.logger.Debug("Generating with OpenAI", zap.String("model", o.model))

	resp, err := o.client.Chat.Completions.New(ctx, o.params(payload))
	if err != nil {
		o.logger.Error("OpenAI generation failed", zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	text := resp.Choices[0].Message.Content
	o.logger.Debug("OpenAI response received",
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return text, nil
}

func (o *OpenAIProvider) Stream(ctx context.Context, payload prompt.Payload, onChunk func(string)) (string, error) {
	o.logger.Debug("Streaming with OpenAI", zap.String("model", o.model))

	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(payload))

	var builder strings.Builder
	finished := false

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}

		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			builder.WriteString(delta)
			onChunk(delta)
		}

		if chunk.Choices[0].FinishReason != "" {
			finished = true
		}
	}

	if err := stream.Err(); err != nil {
		o.logger.Error("OpenAI stream failed", zap.Error(err))
		return "", err
	}

	if !finished {
		return "", errs.NewIncompleteStreamError("OpenAI stream ended without a completion signal", nil)
	}

	return builder.String(), nil
}
