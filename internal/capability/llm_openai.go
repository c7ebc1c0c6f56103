package capability

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowloom/engine/internal/value"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAILlmClient implements LlmClient for both OpenAI and OpenRouter: the
// two request paths differ only in base URL, since OpenRouter speaks the
// OpenAI chat-completions wire format.
type OpenAILlmClient struct {
	// OpenRouterSiteURL and OpenRouterAppName set OpenRouter's optional
	// attribution headers; both may be left empty.
	OpenRouterSiteURL string
	OpenRouterAppName string
}

func (c OpenAILlmClient) clientFor(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIChat implements LlmClient.
func (c OpenAILlmClient) OpenAIChat(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error) {
	return c.chat(ctx, c.clientFor(apiKey, ""), req)
}

// OpenRouterChat implements LlmClient, routing through OpenRouter's base URL.
func (c OpenAILlmClient) OpenRouterChat(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error) {
	return c.chat(ctx, c.clientFor(apiKey, openRouterBaseURL), req)
}

func (c OpenAILlmClient) chat(ctx context.Context, client *openai.Client, req ChatRequest) (ChatResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		chatReq.TopP = float32(*req.TopP)
	}
	if req.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = float32(*req.FrequencyPenalty)
	}
	if req.PresencePenalty != nil {
		chatReq.PresencePenalty = float32(*req.PresencePenalty)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("openai: empty response")
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai: marshal raw response: %w", err)
	}
	rawValue, err := value.Parse(raw)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai: decode raw response: %w", err)
	}

	choice := resp.Choices[0]
	return ChatResponse{
		Content:   choice.Message.Content,
		ToolCalls: fromOpenAIToolCalls(choice.Message.ToolCalls),
		Raw:       rawValue,
	}, nil
}

// OpenAIImage implements LlmClient.
func (c OpenAILlmClient) OpenAIImage(ctx context.Context, apiKey string, req ImageRequest) (ImageResponse, error) {
	client := c.clientFor(apiKey, "")

	n := req.Count
	if n <= 0 {
		n = 1
	}

	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  req.Model,
		N:      n,
		Size:   req.Size,
	})
	if err != nil {
		return ImageResponse{}, fmt.Errorf("openai: image generation: %w", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return ImageResponse{}, fmt.Errorf("openai: marshal image response: %w", err)
	}
	rawValue, err := value.Parse(raw)
	if err != nil {
		return ImageResponse{}, fmt.Errorf("openai: decode image response: %w", err)
	}

	return ImageResponse{Raw: rawValue}, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolType(tc.Type),
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters.Raw(),
			},
		})
	}
	return out
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}
