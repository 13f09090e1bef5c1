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
	"fmt"
)

// maxErrorBodyLength bounds how much of an upstream response body is retained
// in error messages. Bodies can carry provider internals that must not leak
// verbatim to clients.
const maxErrorBodyLength = 200

// ConfigurationError indicates a provider was requested without a configured
// API credential. It is detected before any network call and is never retried.
type ConfigurationError struct {
	Provider Name
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s API key not configured", e.Provider)
}

// ValidationError indicates caller-supplied input (prompt, mode, provider) is
// missing or malformed. No network call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError indicates a non-success HTTP status or transport failure from
// a provider endpoint. StatusCode is zero for transport-level failures.
type UpstreamError struct {
	Provider   Name
	Model      string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError indicates a provider response did not contain the expected
// structured content. Plain text generation never produces it; only the
// structured question-generation path does.
type ParseError struct {
	Provider Name
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response parse failed: %s", e.Provider, e.Reason)
}

// AggregateError indicates every candidate in a model-fallback chain failed.
// LastErr preserves the final candidate's failure for diagnostics.
type AggregateError struct {
	Provider Name
	Attempts int
	LastErr  error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("all %s models failed after %d attempts", e.Provider, e.Attempts)
}

func (e *AggregateError) Unwrap() error { return e.LastErr }

// truncateBody shortens upstream response bodies before they are embedded in
// errors.
func truncateBody(body string) string {
	if len(body) <= maxErrorBodyLength {
		return body
	}
	return body[:maxErrorBodyLength] + "..."
}
