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

// Settings holds bounded generation parameters for a (provider, model) pair.
// TopP of zero means "not set" and is omitted from upstream requests.
type Settings struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// catalog is the static per-model settings table. Every provider must have an
// entry for its default model; ResolveSettings falls back to it for unknown
// model identifiers.
var catalog = map[Name]map[string]Settings{
	OpenAI: {
		"gpt-3.5-turbo":     {MaxTokens: 2000, Temperature: 0.7},
		"gpt-3.5-turbo-16k": {MaxTokens: 4000, Temperature: 0.7},
		"gpt-4":             {MaxTokens: 3000, Temperature: 0.7},
		"gpt-4-turbo":       {MaxTokens: 4000, Temperature: 0.7},
	},
	Groq: {
		"llama-3.1-8b-instant":    {MaxTokens: 1000, Temperature: 0.7},
		"llama-3.1-70b-versatile": {MaxTokens: 1000, Temperature: 0.7},
		"mixtral-8x7b-32768":      {MaxTokens: 1000, Temperature: 0.7},
		"gemma2-9b-it":            {MaxTokens: 1000, Temperature: 0.7},
	},
	Gemini: {
		"gemini-1.5-flash": {MaxTokens: 1000, Temperature: 0.7},
		"gemini-1.5-pro":   {MaxTokens: 1000, Temperature: 0.7},
	},
	HuggingFace: {
		"microsoft/DialoGPT-small":         {MaxTokens: 500, Temperature: 0.7, TopP: 0.9},
		"facebook/blenderbot-400M-distill": {MaxTokens: 500, Temperature: 0.7, TopP: 0.9},
		"EleutherAI/gpt-neo-125M":          {MaxTokens: 500, Temperature: 0.7, TopP: 0.9},
		"google/flan-t5-small":             {MaxTokens: 500, Temperature: 0.7, TopP: 0.9},
	},
}

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[Name]string{
	OpenAI:      "gpt-3.5-turbo",
	Groq:        "llama-3.1-8b-instant",
	Gemini:      "gemini-1.5-flash",
	HuggingFace: "microsoft/DialoGPT-small",
}

// DefaultModel returns the default model identifier for a provider.
func DefaultModel(p Name) string {
	return defaultModels[p]
}

// ResolveSettings returns the generation settings for a (provider, model)
// pair, falling back to the provider's default-model entry when the model is
// not in the catalog. It is a pure lookup with no failure mode: the catalog
// is validated against defaultModels in package tests.
func ResolveSettings(p Name, model string) Settings {
	models, ok := catalog[p]
	if !ok {
		return Settings{}
	}
	if settings, ok := models[model]; ok {
		return settings
	}
	return models[defaultModels[p]]
}
