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

// Package jsonx provides best-effort extraction of a JSON object embedded in
// free-form model output. Models without native structured-output support
// tend to wrap their JSON in commentary; Extract tolerates that by scanning
// for the outermost brace pair.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject is returned when the input contains no parseable JSON object.
var ErrNoObject = errors.New("no JSON object found in text")

// Extract returns the substring spanning the first '{' through the last '}'
// of raw, provided that substring is valid JSON. Surrounding commentary is
// discarded.
func Extract(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoObject
	}
	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", ErrNoObject
	}
	return candidate, nil
}

// Decode extracts the embedded JSON object and unmarshals it into v.
func Decode(raw string, v any) error {
	candidate, err := Extract(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(candidate), v)
}
