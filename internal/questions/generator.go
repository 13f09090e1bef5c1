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

// Package questions generates clarifying multiple-choice questions for a
// prompt session. It enforces the hard cap on total question turns and owns
// the parsing of structured question payloads out of free-form model output.
package questions

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/prompt-enhancer/internal/jsonx"
	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"go.uber.org/zap"
)

const (
	// MaxTurns is the hard cap on clarifying answers across a session.
	MaxTurns = 5
	// maxPerRequest bounds how many new questions are requested per turn.
	maxPerRequest = 3
	// generationTokenCeiling caps the token budget for question generation.
	generationTokenCeiling = 500
)

// Question is one clarifying multiple-choice question.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Kind    string   `json:"type"`
}

// Request carries the inputs for one round of question generation.
type Request struct {
	Prompt          string
	Mode            mode.Mode
	Provider        provider.Name
	PreviousAnswers []string
}

// Generator produces clarifying questions through the provider registry.
type Generator struct {
	providers *provider.Registry
	logger    *zap.Logger
}

// NewGenerator creates a question generator.
func NewGenerator(providers *provider.Registry, logger *zap.Logger) *Generator {
	return &Generator{providers: providers, logger: logger}
}

// Generate returns up to three new clarifying questions for the session, or
// an empty slice once the turn cap is reached. The cap check happens before
// any provider call.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Question, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &provider.ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	if len(req.PreviousAnswers) >= MaxTurns {
		g.logger.Debug("Question cap reached, skipping generation",
			zap.Int("answers", len(req.PreviousAnswers)),
		)
		return []Question{}, nil
	}

	remaining := MaxTurns - len(req.PreviousAnswers)
	requested := maxPerRequest
	if remaining < requested {
		requested = remaining
	}

	settings := g.providers.Settings(req.Provider)
	if settings.MaxTokens > generationTokenCeiling {
		settings.MaxTokens = generationTokenCeiling
	}

	raw, err := g.providers.Generate(ctx, req.Provider, provider.Request{
		SystemPrompt: questionSystemPrompt,
		UserPrompt:   buildUserPrompt(req, requested),
		Settings:     settings,
		WantJSON:     true,
	})
	if err != nil {
		return nil, err
	}

	questions, err := parseQuestions(req.Provider, raw)
	if err != nil {
		return nil, err
	}
	if len(questions) > requested {
		questions = questions[:requested]
	}

	g.logger.Info("Generated clarifying questions",
		zap.String("provider", string(req.Provider)),
		zap.Int("requested", requested),
		zap.Int("returned", len(questions)),
		zap.Int("turn", len(req.PreviousAnswers)+1),
	)
	return questions, nil
}

// buildUserPrompt renders the session state for the model.
func buildUserPrompt(req Request, requested int) string {
	previous := "None"
	if len(req.PreviousAnswers) > 0 {
		previous = strings.Join(req.PreviousAnswers, ", ")
	}
	return fmt.Sprintf(
		"Initial User Prompt: %q\nMode: %q\n\nPrevious answers provided: %s\n\nGenerate %d more questions to clarify the prompt.",
		req.Prompt, req.Mode.Context(), previous, requested,
	)
}

// questionPayload is the structured shape expected from the model.
type questionPayload struct {
	Questions []Question `json:"questions"`
}

// parseQuestions extracts the questions array from raw model output,
// tolerating commentary around the JSON object. A payload without a parseable
// object is a ParseError; a valid object without questions yields an empty
// slice. Questions with out-of-range option counts are dropped.
func parseQuestions(p provider.Name, raw string) ([]Question, error) {
	var payload questionPayload
	if err := jsonx.Decode(raw, &payload); err != nil {
		return nil, &provider.ParseError{Provider: p, Reason: err.Error()}
	}

	questions := make([]Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if len(q.Options) < 3 || len(q.Options) > 4 {
			continue
		}
		if q.Kind == "" {
			q.Kind = "multiple_choice"
		}
		questions = append(questions, q)
	}
	return questions, nil
}
