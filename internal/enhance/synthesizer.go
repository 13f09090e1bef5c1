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

// Package enhance implements the two-stage enhancement synthesis: polishing
// the user's prompt from the accumulated question-and-answer context, then
// feeding the polished prompt back through the same provider for the final
// response.
package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"go.uber.org/zap"
)

const (
	// polishTokenCeiling bounds stage 1 more tightly than stage 2: the polish
	// only needs to rewrite a prompt, not answer it.
	polishTokenCeiling = 500
	// noResponsePlaceholder substitutes for an empty final response so a
	// session never fails on an empty model reply.
	noResponsePlaceholder = "No response generated"
)

// enhancementSystemPrompt frames stage 1 for the model.
const enhancementSystemPrompt = `You are an expert prompt engineer. Your job is to analyze and improve user prompts to make them more effective for AI language models.

When given a user prompt, you should:
1. Identify the user's intent and goals
2. Add missing context or specificity based on the user's answers
3. Structure the prompt for better clarity
4. Include relevant examples if helpful
5. Ensure the prompt follows best practices for AI interaction

Return ONLY the improved prompt, nothing else. Do not add explanations or meta-commentary.`

// Request carries the inputs for one enhancement.
type Request struct {
	Prompt   string
	Mode     mode.Mode
	Provider provider.Name
	Answers  []string
}

// Result is the terminal artifact of a prompt session. It is immutable once
// produced; storage of the result is the caller's concern and a storage
// failure never invalidates it.
type Result struct {
	OriginalPrompt string        `json:"originalPrompt"`
	EnhancedPrompt string        `json:"enhancedPrompt"`
	AIResponse     string        `json:"aiResponse"`
	Mode           mode.Mode     `json:"mode"`
	Provider       provider.Name `json:"provider"`
	Answers        []string      `json:"answers,omitempty"`
}

// Synthesizer runs the two-stage enhancement through the provider registry.
type Synthesizer struct {
	providers *provider.Registry
	logger    *zap.Logger
}

// NewSynthesizer creates an enhancement synthesizer.
func NewSynthesizer(providers *provider.Registry, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{providers: providers, logger: logger}
}

// Enhance polishes the prompt (stage 1) and generates the final response from
// the polished prompt (stage 2). An empty stage-1 output falls back to the
// original prompt; an empty stage-2 output falls back to a fixed placeholder.
// Any adapter error aborts both stages with no partial result.
func (s *Synthesizer) Enhance(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &provider.ValidationError{Field: "prompt", Message: "must not be empty"}
	}

	settings := s.providers.Settings(req.Provider)
	polishSettings := settings
	if polishSettings.MaxTokens > polishTokenCeiling {
		polishSettings.MaxTokens = polishTokenCeiling
	}

	polished, err := s.providers.Generate(ctx, req.Provider, provider.Request{
		UserPrompt: buildPolishPrompt(req),
		Settings:   polishSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("prompt polish failed: %w", err)
	}
	enhancedPrompt := strings.TrimSpace(polished)
	if enhancedPrompt == "" {
		s.logger.Warn("Empty polish output, falling back to original prompt",
			zap.String("provider", string(req.Provider)),
		)
		enhancedPrompt = req.Prompt
	}

	response, err := s.providers.Generate(ctx, req.Provider, provider.Request{
		UserPrompt: enhancedPrompt,
		Settings:   settings,
	})
	if err != nil {
		return nil, fmt.Errorf("final response generation failed: %w", err)
	}
	aiResponse := strings.TrimSpace(response)
	if aiResponse == "" {
		aiResponse = noResponsePlaceholder
	}

	s.logger.Info("Enhancement completed",
		zap.String("provider", string(req.Provider)),
		zap.String("mode", string(req.Mode)),
		zap.Int("answers", len(req.Answers)),
		zap.Int("enhanced_length", len(enhancedPrompt)),
		zap.Int("response_length", len(aiResponse)),
	)

	return &Result{
		OriginalPrompt: req.Prompt,
		EnhancedPrompt: enhancedPrompt,
		AIResponse:     aiResponse,
		Mode:           req.Mode,
		Provider:       req.Provider,
		Answers:        req.Answers,
	}, nil
}

// buildPolishPrompt combines the enhancement system prompt, the mode
// guidance, the original prompt, and a numbered rendering of the collected
// answers.
func buildPolishPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(enhancementSystemPrompt)
	sb.WriteString("\n\nMode: ")
	sb.WriteString(req.Mode.Guidance())
	fmt.Fprintf(&sb, "\n\nUser prompt to improve: %q", req.Prompt)
	if len(req.Answers) > 0 {
		sb.WriteString("\n\nUser's answers to clarifying questions:")
		for i, answer := range req.Answers {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, answer)
		}
	}
	return sb.String()
}
