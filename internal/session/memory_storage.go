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
	"context"
	"sync"
	"time"

	"github.com/your-org/prompt-enhancer/internal/pipeline"
)

// entry wraps a stored session with its expiry.
type entry struct {
	sess      *pipeline.Session
	expiresAt time.Time
}

// MemoryStorage provides in-memory session storage with oldest-first eviction
// once maxSessions is reached.
type MemoryStorage struct {
	entries     map[string]entry
	maxSessions int
	mutex       sync.RWMutex
}

// NewMemoryStorage creates in-memory session storage.
func NewMemoryStorage(maxSessions int) *MemoryStorage {
	return &MemoryStorage{
		entries:     make(map[string]entry),
		maxSessions: maxSessions,
	}
}

// Get retrieves a session by ID. Expired sessions are reported as not found.
func (m *MemoryStorage) Get(_ context.Context, sessionID string) (*pipeline.Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	e, ok := m.entries[sessionID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}

	// Copies prevent callers from mutating stored state outside Set.
	sessCopy := *e.sess
	sessCopy.Answers = append([]string(nil), e.sess.Answers...)
	return &sessCopy, nil
}

// Set stores a session, evicting the oldest entry if the store is full.
func (m *MemoryStorage) Set(_ context.Context, sess *pipeline.Session, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.entries[sess.ID]; !ok && m.maxSessions > 0 && len(m.entries) >= m.maxSessions {
		m.evictOldest()
	}

	sessCopy := *sess
	sessCopy.Answers = append([]string(nil), sess.Answers...)
	m.entries[sess.ID] = entry{sess: &sessCopy, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes a session.
func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.entries[sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.entries, sessionID)
	return nil
}

// Cleanup removes expired sessions.
func (m *MemoryStorage) Cleanup(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	return nil
}

// Close releases all stored sessions.
func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = make(map[string]entry)
	return nil
}

// evictOldest drops the entry with the earliest update time. Caller holds the
// write lock.
func (m *MemoryStorage) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range m.entries {
		if oldestID == "" || e.sess.UpdatedAt.Before(oldest) {
			oldestID = id
			oldest = e.sess.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(m.entries, oldestID)
	}
}
