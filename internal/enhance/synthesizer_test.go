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

package enhance

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"go.uber.org/zap"
)

// scriptedAdapter returns queued responses in order, one per call.
type scriptedAdapter struct {
	responses []string
	errs      []error
	calls     int
	requests  []provider.Request
}

func (s *scriptedAdapter) Name() provider.Name { return provider.Groq }

func (s *scriptedAdapter) Generate(_ context.Context, req provider.Request) (string, error) {
	i := s.calls
	s.calls++
	s.requests = append(s.requests, req)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func newTestSynthesizer(stub *scriptedAdapter) *Synthesizer {
	registry := provider.NewRegistry(provider.Credentials{}, zap.NewNop())
	registry.Register(stub, "")
	return NewSynthesizer(registry, zap.NewNop())
}

func TestEnhanceTwoStages(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{"Polished prompt", "Final answer"}}
	synthesizer := newTestSynthesizer(stub)

	result, err := synthesizer.Enhance(context.Background(), Request{
		Prompt:   "write a poem",
		Mode:     mode.Writing,
		Provider: provider.Groq,
		Answers:  []string{"About autumn", "Four stanzas"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.OriginalPrompt != "write a poem" {
		t.Errorf("Original prompt not preserved: %q", result.OriginalPrompt)
	}
	if result.EnhancedPrompt != "Polished prompt" {
		t.Errorf("Expected stage-1 output as enhanced prompt, got %q", result.EnhancedPrompt)
	}
	if result.AIResponse != "Final answer" {
		t.Errorf("Expected stage-2 output as response, got %q", result.AIResponse)
	}
	if stub.calls != 2 {
		t.Fatalf("Expected exactly 2 provider calls, got %d", stub.calls)
	}

	// Stage 1 carries the mode guidance and numbered answers
	polish := stub.requests[0].UserPrompt
	if !strings.Contains(polish, `"write a poem"`) {
		t.Errorf("Stage-1 prompt missing quoted original: %q", polish)
	}
	if !strings.Contains(polish, "1. About autumn") || !strings.Contains(polish, "2. Four stanzas") {
		t.Errorf("Stage-1 prompt missing numbered answers: %q", polish)
	}

	// Stage 2 is fed the polished prompt, not the original
	if stub.requests[1].UserPrompt != "Polished prompt" {
		t.Errorf("Stage 2 should use the polished prompt, got %q", stub.requests[1].UserPrompt)
	}
}

func TestEnhanceDeterministic(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{
		"Polished prompt", "Final answer",
		"Polished prompt", "Final answer",
	}}
	synthesizer := newTestSynthesizer(stub)

	req := Request{
		Prompt:   "write a poem",
		Mode:     mode.Writing,
		Provider: provider.Groq,
		Answers:  []string{"About autumn"},
	}

	first, err := synthesizer.Enhance(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := synthesizer.Enhance(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Identical inputs produced different results: %+v vs %+v", first, second)
	}
	if stub.requests[0].UserPrompt != stub.requests[2].UserPrompt {
		t.Errorf("Stage-1 prompts differ across runs: %q vs %q",
			stub.requests[0].UserPrompt, stub.requests[2].UserPrompt)
	}
	if stub.calls != 4 {
		t.Fatalf("Expected 2 provider calls per run, got %d total", stub.calls)
	}
}

func TestEnhanceEmptyPolishFallsBackToOriginal(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{"   ", "Final answer"}}
	synthesizer := newTestSynthesizer(stub)

	result, err := synthesizer.Enhance(context.Background(), Request{
		Prompt:   "write a poem",
		Provider: provider.Groq,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.EnhancedPrompt != "write a poem" {
		t.Errorf("Expected fallback to original prompt, got %q", result.EnhancedPrompt)
	}
	if stub.calls != 2 {
		t.Errorf("Stage 2 must still run after the fallback, got %d calls", stub.calls)
	}
	if stub.requests[1].UserPrompt != "write a poem" {
		t.Errorf("Stage 2 should use the fallback prompt, got %q", stub.requests[1].UserPrompt)
	}
}

func TestEnhanceEmptyResponsePlaceholder(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{"Polished prompt", ""}}
	synthesizer := newTestSynthesizer(stub)

	result, err := synthesizer.Enhance(context.Background(), Request{
		Prompt:   "write a poem",
		Provider: provider.Groq,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.AIResponse != noResponsePlaceholder {
		t.Errorf("Expected placeholder response, got %q", result.AIResponse)
	}
}

func TestEnhanceStageOneErrorAborts(t *testing.T) {
	upstream := &provider.UpstreamError{Provider: provider.Groq, StatusCode: 500, Body: "boom"}
	stub := &scriptedAdapter{errs: []error{upstream}}
	synthesizer := newTestSynthesizer(stub)

	result, err := synthesizer.Enhance(context.Background(), Request{
		Prompt:   "write a poem",
		Provider: provider.Groq,
	})
	if err == nil {
		t.Fatal("Expected error from stage 1")
	}
	if result != nil {
		t.Errorf("Expected no partial result, got %+v", result)
	}
	if !strings.Contains(err.Error(), "prompt polish failed") {
		t.Errorf("Expected stage-1 error context, got %v", err)
	}
	var upstreamErr *provider.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Errorf("Expected the UpstreamError to remain unwrappable, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("Stage 2 must not run after a stage-1 failure, got %d calls", stub.calls)
	}
}

func TestEnhanceStageTwoErrorAborts(t *testing.T) {
	upstream := &provider.UpstreamError{Provider: provider.Groq, StatusCode: 429, Body: "rate limited"}
	stub := &scriptedAdapter{responses: []string{"Polished prompt", ""}, errs: []error{nil, upstream}}
	synthesizer := newTestSynthesizer(stub)

	result, err := synthesizer.Enhance(context.Background(), Request{
		Prompt:   "write a poem",
		Provider: provider.Groq,
	})
	if err == nil {
		t.Fatal("Expected error from stage 2")
	}
	if result != nil {
		t.Errorf("Expected no partial result, got %+v", result)
	}
	if !strings.Contains(err.Error(), "final response generation failed") {
		t.Errorf("Expected stage-2 error context, got %v", err)
	}
}

func TestEnhanceEmptyPrompt(t *testing.T) {
	stub := &scriptedAdapter{}
	synthesizer := newTestSynthesizer(stub)

	_, err := synthesizer.Enhance(context.Background(), Request{Prompt: "  ", Provider: provider.Groq})

	var validationErr *provider.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("Expected no provider calls, got %d", stub.calls)
	}
}

func TestEnhancePolishTokenCeiling(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{"Polished", "Answer"}}
	synthesizer := newTestSynthesizer(stub)

	_, err := synthesizer.Enhance(context.Background(), Request{Prompt: "p", Provider: provider.Groq})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stub.requests[0].Settings.MaxTokens > polishTokenCeiling {
		t.Errorf("Stage 1 MaxTokens should be clamped to %d, got %d", polishTokenCeiling, stub.requests[0].Settings.MaxTokens)
	}
}
