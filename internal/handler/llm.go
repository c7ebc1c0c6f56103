package handler

import (
	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func buildChatMessages(cfg, input value.Value) ([]capability.ChatMessage, error) {
	var messages []capability.ChatMessage
	if sys, ok := configString(cfg, "systemMessage"); ok && sys != "" {
		messages = append(messages, capability.ChatMessage{Role: "system", Content: value.Interpolate(sys, input)})
	}
	prompt, ok := configString(cfg, "prompt")
	if !ok {
		return nil, engineerr.MissingField("prompt")
	}
	messages = append(messages, capability.ChatMessage{Role: "user", Content: value.Interpolate(prompt, input)})
	return messages, nil
}

func optionalFloat(cfg value.Value, key string) *float64 {
	v, ok := cfg.Get(key)
	if !ok || !v.IsNumber() {
		return nil
	}
	n := v.Number()
	return &n
}

func optionalInt(cfg value.Value, key string) *int {
	v, ok := cfg.Get(key)
	if !ok || !v.IsNumber() {
		return nil
	}
	n := int(v.Number())
	return &n
}

// openAIHandler implements the openai kind: resource ∈ {chat, image} (spec
// §4.3). Only the (chat, chat.completions) and (image, image.generate)
// combinations are valid; anything else is a ConfigError.
type openAIHandler struct{}

func (openAIHandler) Kind() string { return "openai" }

func (openAIHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.LlmClient == nil {
		return value.Null(), engineerr.Config("no LlmClient capability configured")
	}

	apiKey, err := resolveAPIKey(ectx, node.Config, "OPENAI_API_KEY")
	if err != nil {
		return value.Null(), err
	}

	resource := configStringDefault(node.Config, "resource", "chat")
	operation := configStringDefault(node.Config, "operation", "")

	switch {
	case resource == "chat" && (operation == "" || operation == "chat.completions"):
		messages, err := buildChatMessages(node.Config, input)
		if err != nil {
			return value.Null(), err
		}
		model := configStringDefault(node.Config, "model", "gpt-4o-mini")
		resp, err := ectx.Capabilities.LlmClient.OpenAIChat(ectx.Context(), apiKey, capability.ChatRequest{Model: model, Messages: messages})
		if err != nil {
			return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
		}
		return resp.Raw, nil

	case resource == "image" && (operation == "" || operation == "image.generate"):
		promptTemplate, ok := configString(node.Config, "prompt")
		if !ok {
			return value.Null(), engineerr.MissingField("prompt")
		}
		resp, err := ectx.Capabilities.LlmClient.OpenAIImage(ectx.Context(), apiKey, capability.ImageRequest{
			Prompt: value.Interpolate(promptTemplate, input),
			Size:   configStringDefault(node.Config, "size", "1024x1024"),
			Model:  configStringDefault(node.Config, "model", "dall-e-3"),
			Count:  1,
		})
		if err != nil {
			return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
		}
		return resp.Raw, nil

	default:
		return value.Null(), engineerr.Config("unsupported openai resource/operation combination")
	}
}

func buildSampledChatRequest(node types.Node, input value.Value, model string, temperature *float64, maxTokens *int) (capability.ChatRequest, error) {
	messages, err := buildChatMessages(node.Config, input)
	if err != nil {
		return capability.ChatRequest{}, err
	}
	return capability.ChatRequest{
		Model:            model,
		Messages:         messages,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             optionalFloat(node.Config, "topP"),
		FrequencyPenalty: optionalFloat(node.Config, "frequencyPenalty"),
		PresencePenalty:  optionalFloat(node.Config, "presencePenalty"),
	}, nil
}

// openRouterHandler implements the openrouter kind: a single
// chat.completions-like call passing through sampling parameters when set
// (spec §4.3).
type openRouterHandler struct{}

func (openRouterHandler) Kind() string { return "openrouter" }

func (openRouterHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.LlmClient == nil {
		return value.Null(), engineerr.Config("no LlmClient capability configured")
	}
	apiKey, err := resolveAPIKey(ectx, node.Config, "OPENROUTER_API_KEY")
	if err != nil {
		return value.Null(), err
	}

	model := configStringDefault(node.Config, "model", "openai/gpt-4o-mini")
	req, err := buildSampledChatRequest(node, input, model, optionalFloat(node.Config, "temperature"), optionalInt(node.Config, "maxTokens"))
	if err != nil {
		return value.Null(), err
	}

	resp, err := ectx.Capabilities.LlmClient.OpenRouterChat(ectx.Context(), apiKey, req)
	if err != nil {
		return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
	}
	return resp.Raw, nil
}

// llmHandler implements the llm convenience kind: OpenRouter with fixed
// temperature=0.7, maxTokens=1000 (spec §4.3).
type llmHandler struct{}

func (llmHandler) Kind() string { return "llm" }

func (llmHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.LlmClient == nil {
		return value.Null(), engineerr.Config("no LlmClient capability configured")
	}
	apiKey, err := resolveAPIKey(ectx, node.Config, "OPENROUTER_API_KEY")
	if err != nil {
		return value.Null(), err
	}

	temperature := 0.7
	maxTokens := 1000
	model := configStringDefault(node.Config, "model", "openai/gpt-4o-mini")
	req, err := buildSampledChatRequest(node, input, model, &temperature, &maxTokens)
	if err != nil {
		return value.Null(), err
	}

	resp, err := ectx.Capabilities.LlmClient.OpenRouterChat(ectx.Context(), apiKey, req)
	if err != nil {
		return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
	}
	return resp.Raw, nil
}
