package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Folder groups conversations in the sidebar.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateFolder inserts a folder for the user.
func (s *Store) CreateFolder(ctx context.Context, userID, name string) (*Folder, error) {
	folder := &Folder{
		ID:        newID("folder"),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO folders (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		folder.ID, folder.UserID, folder.Name, folder.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder: %w", err)
	}
	return folder, nil
}

// ListFolders returns a user's folders by creation order.
func (s *Store) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM folders WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	folders := []Folder{}
	for rows.Next() {
		var folder Folder
		if err := rows.Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder. Conversations inside it are detached rather
// than deleted.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach conversations: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if err := checkAffected(result); err != nil {
		return err
	}
	return tx.Commit()
}

// MoveConversation assigns a conversation to a folder, or detaches it when
// folderID is empty.
func (s *Store) MoveConversation(ctx context.Context, conversationID, folderID string) error {
	if folderID != "" {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM folders WHERE id = ?`, folderID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query folder: %w", err)
		}
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET folder_id = ?, updated_at = ? WHERE id = ?`,
		nullable(folderID), time.Now().UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to move conversation: %w", err)
	}
	return checkAffected(result)
}
