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

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultConversationTitle is used when no content is available for title
// generation.
const DefaultConversationTitle = "New Conversation"

var whitespaceRe = regexp.MustCompile(`\s+`)

// GenerateSessionID generates a unique session identifier.
func GenerateSessionID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("session_%d", time.Now().UnixNano())
	}
	return "session_" + hex.EncodeToString(bytes)
}

// GenerateTitle derives a conversation title from the original prompt.
func GenerateTitle(prompt string) string {
	title := whitespaceRe.ReplaceAllString(strings.TrimSpace(prompt), " ")
	if title == "" {
		return DefaultConversationTitle
	}

	const maxTitleLength = 60
	if utf8.RuneCountInString(title) > maxTitleLength {
		runes := []rune(title)
		title = string(runes[:maxTitleLength]) + "..."
	}

	runes := []rune(title)
	if runes[0] >= 'a' && runes[0] <= 'z' {
		runes[0] = runes[0] - 'a' + 'A'
		title = string(runes)
	}
	return title
}
