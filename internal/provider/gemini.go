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
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// geminiAdapter calls the Google Gemini API. Gemini has no separate system
// role on this call path, so the system prompt is concatenated ahead of the
// user prompt as a single content part.
type geminiAdapter struct {
	apiKey string
	model  string
	logger *zap.Logger
}

// NewGemini creates the Gemini adapter.
func NewGemini(apiKey, model string, logger *zap.Logger) Adapter {
	if model == "" {
		model = DefaultModel(Gemini)
	}
	return &geminiAdapter{apiKey: apiKey, model: model, logger: logger}
}

func (a *geminiAdapter) Name() Name { return Gemini }

func (a *geminiAdapter) Generate(ctx context.Context, req Request) (string, error) {
	if a.apiKey == "" {
		return "", &ConfigurationError{Provider: Gemini}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", &UpstreamError{Provider: Gemini, Model: a.model, Err: err}
	}
	defer func() { _ = client.Close() }()

	model := client.GenerativeModel(a.model)
	model.SetMaxOutputTokens(int32(req.Settings.MaxTokens))
	model.SetTemperature(req.Settings.Temperature)
	if req.Settings.TopP > 0 {
		model.SetTopP(req.Settings.TopP)
	}
	if req.WantJSON {
		model.ResponseMIMEType = "application/json"
	}

	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	a.logger.Debug("Generating Gemini content",
		zap.String("model", a.model),
		zap.Int("max_tokens", req.Settings.MaxTokens),
		zap.Bool("want_json", req.WantJSON),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", a.wrapError(err)
	}
	return geminiText(resp), nil
}

func (a *geminiAdapter) wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Provider:   Gemini,
			Model:      a.model,
			StatusCode: apiErr.Code,
			Body:       truncateBody(apiErr.Message),
			Err:        err,
		}
	}
	return &UpstreamError{Provider: Gemini, Model: a.model, Err: err}
}

// geminiText flattens the first candidate's text parts. Responses without
// text parts yield an empty string, never an error.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
