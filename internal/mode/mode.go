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

// Package mode defines the enhancement framing modes. Unrecognized values
// always resolve to General so a session never carries an unknown mode.
package mode

// Mode selects the question and enhancement framing for a prompt session.
type Mode string

const (
	// General applies generic prompt improvement techniques.
	General Mode = "general"
	// Writing targets creative writing and content creation prompts.
	Writing Mode = "writing"
	// Coding targets programming and technical assistance prompts.
	Coding Mode = "coding"
	// Marketing targets marketing copy and business communication prompts.
	Marketing Mode = "marketing"
	// Research targets research and analysis prompts.
	Research Mode = "research"
)

// guidance holds the per-mode instruction appended to the enhancement system
// prompt.
var guidance = map[Mode]string{
	Writing:   "Focus on improving prompts for creative writing, storytelling, and content creation.",
	Coding:    "Focus on improving prompts for programming, debugging, and technical assistance.",
	Marketing: "Focus on improving prompts for marketing copy, sales content, and business communication.",
	Research:  "Focus on improving prompts for research, analysis, and information gathering.",
	General:   "Apply general prompt improvement techniques for any use case.",
}

// Parse resolves a caller-supplied mode string, falling back to General for
// empty or unrecognized values.
func Parse(s string) Mode {
	m := Mode(s)
	if _, ok := guidance[m]; ok {
		return m
	}
	return General
}

// Guidance returns the mode-specific instruction string used by the
// enhancement synthesizer.
func (m Mode) Guidance() string {
	if g, ok := guidance[m]; ok {
		return g
	}
	return guidance[General]
}

// Context returns the phrasing used when describing the mode to the model in
// question-generation prompts.
func (m Mode) Context() string {
	if m == General || m == "" {
		return "general purpose"
	}
	return string(m)
}
