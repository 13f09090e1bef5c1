// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provider

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint. The Groq adapter reuses
// the go-openai client against it, so both chat-style providers share one
// implementation.
const groqBaseURL = "https://api.groq.com/openai/v1"

// chatAdapter serves the two chat-completion providers (OpenAI and Groq).
type chatAdapter struct {
	name   Name
	apiKey string
	model  string
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAI creates the OpenAI adapter. An empty model selects the default
// from the settings catalog.
func NewOpenAI(apiKey, model string, logger *zap.Logger) Adapter {
	return newChatAdapter(OpenAI, apiKey, model, "", logger)
}

// NewGroq creates the Groq adapter.
func NewGroq(apiKey, model string, logger *zap.Logger) Adapter {
	return newChatAdapter(Groq, apiKey, model, groqBaseURL, logger)
}

func newChatAdapter(name Name, apiKey, model, baseURL string, logger *zap.Logger) *chatAdapter {
	a := &chatAdapter{
		name:   name,
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
	if a.model == "" {
		a.model = DefaultModel(name)
	}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		a.client = openai.NewClientWithConfig(cfg)
	}
	return a
}

func (a *chatAdapter) Name() Name { return a.name }

// Generate makes exactly one chat-completion call. An absent first choice is
// treated as empty-string success; errors carry the upstream status.
func (a *chatAdapter) Generate(ctx context.Context, req Request) (string, error) {
	if a.apiKey == "" {
		return "", &ConfigurationError{Provider: a.name}
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	completionReq := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   req.Settings.MaxTokens,
		Temperature: req.Settings.Temperature,
		TopP:        req.Settings.TopP,
	}
	if req.WantJSON {
		completionReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	a.logger.Debug("Creating chat completion",
		zap.String("provider", string(a.name)),
		zap.String("model", a.model),
		zap.Int("max_tokens", req.Settings.MaxTokens),
		zap.Bool("want_json", req.WantJSON),
	)

	resp, err := a.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return "", a.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		a.logger.Warn("Chat completion returned no choices",
			zap.String("provider", string(a.name)),
			zap.String("model", a.model),
		)
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// wrapError converts go-openai errors into the provider error taxonomy.
func (a *chatAdapter) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Provider:   a.name,
			Model:      a.model,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       truncateBody(apiErr.Message),
			Err:        err,
		}
	}
	return &UpstreamError{Provider: a.name, Model: a.model, Err: err}
}
