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

import "testing"

func TestResolveSettingsKnownModel(t *testing.T) {
	settings := ResolveSettings(OpenAI, "gpt-4")

	if settings.MaxTokens != 3000 {
		t.Errorf("Expected MaxTokens 3000, got %d", settings.MaxTokens)
	}
	if settings.Temperature != 0.7 {
		t.Errorf("Expected Temperature 0.7, got %f", settings.Temperature)
	}
}

func TestResolveSettingsUnknownModelFallsBackToDefault(t *testing.T) {
	for _, p := range []Name{OpenAI, Groq, Gemini, HuggingFace} {
		got := ResolveSettings(p, "no-such-model")
		want := ResolveSettings(p, DefaultModel(p))
		if got != want {
			t.Errorf("Provider %s: expected fallback to default model settings %+v, got %+v", p, want, got)
		}
		if got.MaxTokens <= 0 {
			t.Errorf("Provider %s: fallback settings have no token budget", p)
		}
	}
}

func TestResolveSettingsUnknownProvider(t *testing.T) {
	settings := ResolveSettings(Name("cohere"), "command-r")
	if settings != (Settings{}) {
		t.Errorf("Expected zero settings for unknown provider, got %+v", settings)
	}
}

func TestDefaultModelsAreCatalogued(t *testing.T) {
	for p, model := range defaultModels {
		models, ok := catalog[p]
		if !ok {
			t.Fatalf("Provider %s has no catalog block", p)
		}
		if _, ok := models[model]; !ok {
			t.Errorf("Default model %q for %s is missing from the catalog", model, p)
		}
	}
}

func TestHuggingFaceFallbackModelsAreCatalogued(t *testing.T) {
	for _, model := range huggingFaceFallbackModels {
		if _, ok := catalog[HuggingFace][model]; !ok {
			t.Errorf("Fallback model %q is missing from the catalog", model)
		}
	}
}
