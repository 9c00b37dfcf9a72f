package actionlist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store over a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the action-list database under
// dataDir, applies the connection pragmas, and runs the idempotent
// migration.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("actionlist: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "actionlists.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("actionlist: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("actionlist: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("actionlist: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS action_lists (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'active',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS action_items (
			id         TEXT PRIMARY KEY,
			list_id    TEXT NOT NULL,
			position   INTEGER NOT NULL,
			text       TEXT NOT NULL,
			done       INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (list_id) REFERENCES action_lists(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_lists_status ON action_lists(status);
		CREATE INDEX IF NOT EXISTS idx_items_list   ON action_items(list_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// --- Lists ---

// CreateList inserts a new active list with a generated id.
func (s *SQLiteStore) CreateList(ctx context.Context, title, description string) (*List, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("actionlist: title cannot be empty")
	}

	now := s.timestamp()
	list := &List{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_lists (id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		list.ID, list.Title, list.Description, string(list.Status), list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("actionlist: create list: %w", err)
	}
	return list, nil
}

// GetList returns the list by id, or ErrListNotFound.
func (s *SQLiteStore) GetList(ctx context.Context, listID string) (*List, error) {
	var l List
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, created_at, updated_at
		FROM action_lists WHERE id = ?`, listID,
	).Scan(&l.ID, &l.Title, &l.Description, (*string)(&l.Status), &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("actionlist: %w: %s", ErrListNotFound, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("actionlist: get list: %w", err)
	}
	return &l, nil
}

// ListLists returns lists filtered by status; an empty status returns
// everything. Ordered newest first.
func (s *SQLiteStore) ListLists(ctx context.Context, status Status) ([]List, error) {
	query := `
		SELECT id, title, description, status, created_at, updated_at
		FROM action_lists`
	var args []any
	if status != "" {
		if err := ValidateStatus(status); err != nil {
			return nil, fmt.Errorf("actionlist: %w", err)
		}
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("actionlist: list lists: %w", err)
	}
	defer rows.Close()

	var out []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, (*string)(&l.Status), &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("actionlist: scan list: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actionlist: iterate lists: %w", err)
	}
	return out, nil
}

// UpdateList applies a partial update and returns the updated record.
func (s *SQLiteStore) UpdateList(ctx context.Context, listID string, update ListUpdate) (*List, error) {
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("actionlist: %w", err)
	}

	list, err := s.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		list.Title = *update.Title
	}
	if update.Description != nil {
		list.Description = *update.Description
	}
	if update.Status != nil {
		list.Status = *update.Status
	}
	list.UpdatedAt = s.timestamp()

	_, err = s.db.ExecContext(ctx, `
		UPDATE action_lists SET title = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		list.Title, list.Description, string(list.Status), list.UpdatedAt, list.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("actionlist: update list: %w", err)
	}
	return list, nil
}

// ArchiveList moves a list to archived status. Archiving an active list
// is allowed — archive is the terminal state for abandoned work too.
func (s *SQLiteStore) ArchiveList(ctx context.Context, listID string) (*List, error) {
	status := StatusArchived
	return s.UpdateList(ctx, listID, ListUpdate{Status: &status})
}

// --- Items ---

// AddItem appends an item at the end of the list.
func (s *SQLiteStore) AddItem(ctx context.Context, listID, text string) (*Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("actionlist: item text cannot be empty")
	}
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}

	var maxPos sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM action_items WHERE list_id = ?`, listID,
	).Scan(&maxPos)
	if err != nil {
		return nil, fmt.Errorf("actionlist: next position: %w", err)
	}

	now := s.timestamp()
	item := &Item{
		ID:        uuid.NewString(),
		ListID:    listID,
		Position:  int(maxPos.Int64) + 1,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO action_items (id, list_id, position, text, done, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		item.ID, item.ListID, item.Position, item.Text, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("actionlist: add item: %w", err)
	}
	return item, nil
}

// CompleteItem marks an item done. Completing an already-done item is
// idempotent.
func (s *SQLiteStore) CompleteItem(ctx context.Context, listID, itemID string) (*Item, error) {
	item, err := s.getItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}

	item.Done = true
	item.UpdatedAt = s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`UPDATE action_items SET done = 1, updated_at = ? WHERE id = ?`,
		item.UpdatedAt, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("actionlist: complete item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes an item from its list.
func (s *SQLiteStore) RemoveItem(ctx context.Context, listID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM action_items WHERE id = ? AND list_id = ?`, itemID, listID)
	if err != nil {
		return fmt.Errorf("actionlist: remove item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("actionlist: remove item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("actionlist: %w: %s", ErrItemNotFound, itemID)
	}
	return nil
}

// Items returns all items of a list in position order.
func (s *SQLiteStore) Items(ctx context.Context, listID string) ([]Item, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list_id, position, text, done, created_at, updated_at
		FROM action_items WHERE list_id = ? ORDER BY position ASC`, listID)
	if err != nil {
		return nil, fmt.Errorf("actionlist: items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var done int
		if err := rows.Scan(&it.ID, &it.ListID, &it.Position, &it.Text, &done, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("actionlist: scan item: %w", err)
		}
		it.Done = done != 0
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actionlist: iterate items: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) getItem(ctx context.Context, listID, itemID string) (*Item, error) {
	var it Item
	var done int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, list_id, position, text, done, created_at, updated_at
		FROM action_items WHERE id = ? AND list_id = ?`, itemID, listID,
	).Scan(&it.ID, &it.ListID, &it.Position, &it.Text, &done, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("actionlist: %w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("actionlist: get item: %w", err)
	}
	it.Done = done != 0
	return &it, nil
}
