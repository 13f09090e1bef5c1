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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/your-org/prompt-enhancer/internal/jsonx"
	"go.uber.org/zap"
)

const (
	// defaultHuggingFaceEndpoint is the hosted inference API base URL.
	defaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models"
	// huggingFaceTokenCeiling caps max_new_tokens on the hosted free tier.
	huggingFaceTokenCeiling = 500
	// huggingFaceRequestTimeout bounds a single candidate-model attempt.
	huggingFaceRequestTimeout = 60 * time.Second
)

// huggingFaceFallbackModels is the ordered candidate chain. Generation walks
// it until one model succeeds; the configured model, if any, is tried first.
var huggingFaceFallbackModels = []string{
	"microsoft/DialoGPT-small",
	"facebook/blenderbot-400M-distill",
	"EleutherAI/gpt-neo-125M",
}

// HuggingFaceOptions configures the HuggingFace adapter.
type HuggingFaceOptions struct {
	APIKey   string
	Model    string
	Endpoint string
	// Client overrides the HTTP client, used by tests.
	Client *http.Client
}

// huggingFaceAdapter calls the hosted inference API. Unlike the chat-style
// providers it has no structured-output mode, so on the WantJSON path it
// extracts the first balanced JSON object from each candidate's raw output
// and treats extraction failure as a candidate failure.
type huggingFaceAdapter struct {
	apiKey   string
	endpoint string
	models   []string
	client   *http.Client
	logger   *zap.Logger
}

// NewHuggingFace creates the HuggingFace adapter.
func NewHuggingFace(opts HuggingFaceOptions, logger *zap.Logger) Adapter {
	a := &huggingFaceAdapter{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		client:   opts.Client,
		logger:   logger,
	}
	if a.endpoint == "" {
		a.endpoint = defaultHuggingFaceEndpoint
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: huggingFaceRequestTimeout}
	}
	a.models = huggingFaceFallbackModels
	if opts.Model != "" && opts.Model != a.models[0] {
		a.models = append([]string{opts.Model}, huggingFaceFallbackModels...)
	}
	return a
}

func (a *huggingFaceAdapter) Name() Name { return HuggingFace }

// Generate attempts each candidate model in order and stops at the first
// success. Per-candidate failures (transport, non-2xx, unexpected shape,
// missing JSON on the WantJSON path) are logged and swallowed; if every
// candidate fails the chain is reported as a single AggregateError.
func (a *huggingFaceAdapter) Generate(ctx context.Context, req Request) (string, error) {
	if a.apiKey == "" {
		return "", &ConfigurationError{Provider: HuggingFace}
	}

	input := req.UserPrompt
	if req.SystemPrompt != "" {
		input = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	var lastErr error
	for _, model := range a.models {
		text, err := a.callModel(ctx, model, input, req.Settings)
		if err == nil && req.WantJSON {
			text, err = jsonx.Extract(text)
			if err != nil {
				err = &ParseError{Provider: HuggingFace, Reason: err.Error()}
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			a.logger.Warn("HuggingFace model failed, trying next candidate",
				zap.String("model", model),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		return text, nil
	}

	return "", &AggregateError{Provider: HuggingFace, Attempts: len(a.models), LastErr: lastErr}
}

// generationResponse matches both the array and object response shapes the
// text-generation endpoints return.
type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

// callModel makes a single inference request against one candidate model.
func (a *huggingFaceAdapter) callModel(ctx context.Context, model, input string, settings Settings) (string, error) {
	maxNewTokens := settings.MaxTokens
	if maxNewTokens > huggingFaceTokenCeiling {
		maxNewTokens = huggingFaceTokenCeiling
	}

	parameters := map[string]any{
		"max_new_tokens":   maxNewTokens,
		"temperature":      settings.Temperature,
		"return_full_text": false,
	}
	if settings.TopP > 0 {
		parameters["top_p"] = settings.TopP
	}
	payload, err := json.Marshal(map[string]any{
		"inputs":     input,
		"parameters": parameters,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", a.endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", &UpstreamError{Provider: HuggingFace, Model: model, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Provider: HuggingFace, Model: model, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			Provider:   HuggingFace,
			Model:      model,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(string(body)),
		}
	}

	// text-generation returns an array of results, text2text an object.
	var results []generationResponse
	if err := json.Unmarshal(body, &results); err == nil && len(results) > 0 {
		return results[0].GeneratedText, nil
	}
	var single generationResponse
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}
	return "", &ParseError{Provider: HuggingFace, Reason: "response missing generated_text"}
}
