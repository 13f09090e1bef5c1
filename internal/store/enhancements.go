package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EnhancementRecord is one completed enhancement kept for the history view.
type EnhancementRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OriginalPrompt string    `json:"original_prompt"`
	EnhancedPrompt string    `json:"enhanced_prompt"`
	AIResponse     string    `json:"ai_response"`
	Mode           string    `json:"mode"`
	Provider       string    `json:"provider"`
	Answers        []string  `json:"answers"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveEnhancement persists a completed enhancement result.
func (s *Store) SaveEnhancement(ctx context.Context, rec EnhancementRecord) (*EnhancementRecord, error) {
	rec.ID = newID("enh")
	rec.CreatedAt = time.Now().UTC()
	if rec.Answers == nil {
		rec.Answers = []string{}
	}
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enhancement_results (id, user_id, original_prompt, enhanced_prompt, ai_response, mode, provider, answers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.OriginalPrompt, rec.EnhancedPrompt, rec.AIResponse,
		rec.Mode, rec.Provider, string(answers), rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert enhancement: %w", err)
	}
	return &rec, nil
}

// GetEnhancement returns one saved enhancement by ID.
func (s *Store) GetEnhancement(ctx context.Context, id string) (*EnhancementRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, original_prompt, enhanced_prompt, ai_response, mode, provider, answers, created_at
		 FROM enhancement_results WHERE id = ?`, id)
	rec, err := scanEnhancement(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query enhancement: %w", err)
	}
	return rec, nil
}

// ListEnhancements returns a user's saved enhancements, newest first, up to
// limit entries.
func (s *Store) ListEnhancements(ctx context.Context, userID string, limit int) ([]EnhancementRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, original_prompt, enhanced_prompt, ai_response, mode, provider, answers, created_at
		 FROM enhancement_results WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query enhancements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []EnhancementRecord{}
	for rows.Next() {
		rec, err := scanEnhancement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enhancement: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteEnhancement removes one saved enhancement.
func (s *Store) DeleteEnhancement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM enhancement_results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enhancement: %w", err)
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnhancement(row rowScanner) (*EnhancementRecord, error) {
	var rec EnhancementRecord
	var answers string
	err := row.Scan(&rec.ID, &rec.UserID, &rec.OriginalPrompt, &rec.EnhancedPrompt,
		&rec.AIResponse, &rec.Mode, &rec.Provider, &answers, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
	}
	if rec.Answers == nil {
		rec.Answers = []string{}
	}
	return &rec, nil
}
