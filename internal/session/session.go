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

// Package session tracks in-flight prompt sessions server-side so the HTTP
// surface can cross-check client-supplied answer history instead of trusting
// it blindly. Sessions are transient with a TTL; completed or abandoned
// sessions expire and are swept by a background cleanup loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/pipeline"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Config holds configuration for session tracking.
type Config struct {
	DefaultTTL      time.Duration `json:"default_ttl"`
	MaxSessions     int           `json:"max_sessions"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      30 * time.Minute,
		MaxSessions:     1000,
		CleanupInterval: 5 * time.Minute,
	}
}

// Storage defines the interface for session storage backends.
type Storage interface {
	// Get retrieves a session by ID.
	Get(ctx context.Context, sessionID string) (*pipeline.Session, error)
	// Set stores a session with a TTL.
	Set(ctx context.Context, sess *pipeline.Session, ttl time.Duration) error
	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
	// Close closes the storage backend.
	Close() error
}

// Manager handles prompt-session lifecycle over a storage backend.
type Manager struct {
	storage Storage
	config  Config
	logger  *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewManager creates a session manager backed by in-memory storage.
func NewManager(config Config, logger *zap.Logger) *Manager {
	m := &Manager{
		storage: NewMemoryStorage(config.MaxSessions),
		config:  config,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop()
	}
	return m
}

// Create starts a new prompt session.
func (m *Manager) Create(ctx context.Context, userID, prompt string, md mode.Mode, p provider.Name) (*pipeline.Session, error) {
	now := time.Now()
	sess := &pipeline.Session{
		ID:             GenerateSessionID(),
		UserID:         userID,
		OriginalPrompt: prompt,
		Mode:           md,
		Provider:       p,
		Answers:        []string{},
		State:          pipeline.StateAwaitingPrompt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.storage.Set(ctx, sess, m.config.DefaultTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Info("Created prompt session",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("provider", string(p)),
		zap.String("mode", string(md)),
	)
	return sess, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(ctx context.Context, sessionID string) (*pipeline.Session, error) {
	return m.storage.Get(ctx, sessionID)
}

// Save persists the session's current state and refreshes its TTL.
func (m *Manager) Save(ctx context.Context, sess *pipeline.Session) error {
	sess.UpdatedAt = time.Now()
	if err := m.storage.Set(ctx, sess, m.config.DefaultTTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := m.storage.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Debug("Deleted session", zap.String("session_id", sessionID))
	return nil
}

// cleanupLoop runs periodic cleanup of expired sessions.
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := m.storage.Cleanup(ctx); err != nil {
				m.logger.Error("Failed to cleanup expired sessions", zap.Error(err))
			}
			cancel()
		case <-m.stopCh:
			return
		}
	}
}

// Close gracefully stops the manager.
func (m *Manager) Close() error {
	close(m.stopCh)
	m.wg.Wait()
	return m.storage.Close()
}
