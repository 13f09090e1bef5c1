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

// Package provider normalizes calls to the four supported AI backends behind
// a single generation contract. Callers never special-case providers: each
// adapter owns its backend's authentication, payload shape, and
// response-field extraction.
package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Name identifies a supported AI backend.
type Name string

const (
	// Groq is the fast-inference provider (OpenAI-compatible API).
	Groq Name = "groq"
	// OpenAI is the general commercial LLM provider.
	OpenAI Name = "openai"
	// Gemini is the multimodal provider.
	Gemini Name = "gemini"
	// HuggingFace is the hosted open-model provider with a model-fallback chain.
	HuggingFace Name = "huggingface"
)

// ParseName validates a caller-supplied provider identifier.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Groq, OpenAI, Gemini, HuggingFace:
		return Name(s), nil
	}
	return "", &ValidationError{
		Field:   "provider",
		Message: fmt.Sprintf("must be %q, %q, %q, or %q", Groq, OpenAI, Gemini, HuggingFace),
	}
}

// Request is a normalized generation request.
type Request struct {
	// SystemPrompt is prepended as a system message on chat-style APIs and
	// concatenated before UserPrompt on plain text-generation APIs.
	SystemPrompt string
	// UserPrompt is the user message. Must be non-empty.
	UserPrompt string
	// Settings bounds the generation. Callers resolve these via
	// ResolveSettings and may tighten MaxTokens per call.
	Settings Settings
	// WantJSON asks the backend for a structured JSON object response where
	// it supports that natively; otherwise the adapter extracts the first
	// balanced JSON object from free-form output.
	WantJSON bool
}

// Adapter is implemented once per backend. Generate makes exactly one
// upstream attempt, except the HuggingFace adapter which walks an ordered
// fallback chain and stops at the first success.
//
// A response missing the expected content field yields an empty string and a
// nil error for plain generation; only the WantJSON path reports ParseError.
type Adapter interface {
	Name() Name
	Generate(ctx context.Context, req Request) (string, error)
}

// Registry dispatches generation requests to the adapter for a provider.
// It is constructed once per process with injected credentials and shared by
// the question generator and the enhancement synthesizer.
type Registry struct {
	adapters   map[Name]Adapter
	models     map[Name]string
	configured map[Name]bool
	logger     *zap.Logger
}

// NewRegistry builds a registry with the four production adapters.
// Credentials may be empty: the adapter for a provider without a key reports
// ConfigurationError at call time, before any network attempt.
func NewRegistry(creds Credentials, logger *zap.Logger) *Registry {
	r := &Registry{
		adapters:   make(map[Name]Adapter),
		models:     make(map[Name]string),
		configured: make(map[Name]bool),
		logger:     logger,
	}
	r.Register(NewOpenAI(creds.OpenAIKey, creds.OpenAIModel, logger), creds.OpenAIModel)
	r.Register(NewGroq(creds.GroqKey, creds.GroqModel, logger), creds.GroqModel)
	r.Register(NewGemini(creds.GeminiKey, creds.GeminiModel, logger), creds.GeminiModel)
	r.Register(NewHuggingFace(HuggingFaceOptions{
		APIKey:   creds.HuggingFaceKey,
		Model:    creds.HuggingFaceModel,
		Endpoint: creds.HuggingFaceEndpoint,
	}, logger), creds.HuggingFaceModel)
	r.configured[OpenAI] = creds.OpenAIKey != ""
	r.configured[Groq] = creds.GroqKey != ""
	r.configured[Gemini] = creds.GeminiKey != ""
	r.configured[HuggingFace] = creds.HuggingFaceKey != ""
	return r
}

// Credentials carries per-provider API keys and optional model overrides.
type Credentials struct {
	OpenAIKey           string
	OpenAIModel         string
	GroqKey             string
	GroqModel           string
	GeminiKey           string
	GeminiModel         string
	HuggingFaceKey      string
	HuggingFaceModel    string
	HuggingFaceEndpoint string
}

// Register installs an adapter, replacing any previous one for the same name.
// Tests use this to inject stub adapters.
func (r *Registry) Register(a Adapter, model string) {
	if model == "" {
		model = DefaultModel(a.Name())
	}
	r.adapters[a.Name()] = a
	r.models[a.Name()] = model
	r.configured[a.Name()] = true
}

// Configured returns the names of providers that have an API key, in a
// stable order.
func (r *Registry) Configured() []string {
	names := []string{}
	for _, n := range []Name{Groq, OpenAI, Gemini, HuggingFace} {
		if r.configured[n] {
			names = append(names, string(n))
		}
	}
	return names
}

// Get returns the adapter for a provider.
func (r *Registry) Get(name Name) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, &ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", name)}
	}
	return a, nil
}

// Settings returns the resolved generation settings for a provider's
// configured model.
func (r *Registry) Settings(name Name) Settings {
	return ResolveSettings(name, r.models[name])
}

// Generate dispatches a request to the named provider's adapter.
func (r *Registry) Generate(ctx context.Context, name Name, req Request) (string, error) {
	if req.UserPrompt == "" {
		return "", &ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	a, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return a.Generate(ctx, req)
}
