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

// Package auth resolves the acting user for a request. Identity is optional:
// requests without one still run the pipeline, they just skip persistence.
package auth

import (
	"net/http"
	"strings"
)

// UserHeader carries the caller's identity. Empty or absent means incognito.
const UserHeader = "X-User-ID"

// User identifies a caller for persistence scoping.
type User struct {
	ID string
}

// Incognito reports whether the user has no durable identity.
func (u User) Incognito() bool {
	return u.ID == ""
}

// CurrentUser extracts the acting user from the request headers.
func CurrentUser(r *http.Request) User {
	return User{ID: strings.TrimSpace(r.Header.Get(UserHeader))}
}
