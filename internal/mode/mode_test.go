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

package mode

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"general", General},
		{"writing", Writing},
		{"coding", Coding},
		{"marketing", Marketing},
		{"research", Research},
		{"", General},
		{"WRITING", General},
		{"unknown-mode", General},
	}
	for _, tt := range tests {
		if got := Parse(tt.input); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGuidanceCoversAllModes(t *testing.T) {
	for _, m := range []Mode{General, Writing, Coding, Marketing, Research} {
		if m.Guidance() == "" {
			t.Errorf("Mode %q has no guidance", m)
		}
	}
	if Mode("bogus").Guidance() != General.Guidance() {
		t.Error("Unknown modes should fall back to general guidance")
	}
}

func TestContext(t *testing.T) {
	if General.Context() != "general purpose" {
		t.Errorf("Unexpected general context %q", General.Context())
	}
	if Mode("").Context() != "general purpose" {
		t.Errorf("Empty mode should read as general purpose")
	}
	if Coding.Context() != "coding" {
		t.Errorf("Unexpected coding context %q", Coding.Context())
	}
}
