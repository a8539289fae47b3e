package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// History is a local sqlite store of past generations so a map can be
// reopened offline. Only the raw generation payload is kept; in-session
// edits are never persisted.
type History struct {
	db *sql.DB
}

// HistoryEntry is one stored generation.
type HistoryEntry struct {
	ID        int64
	CreatedAt time.Time
	ChatID    string
	Size      string
	RootLabel string
}

const historySchema = `
CREATE TABLE IF NOT EXISTS generations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT    NOT NULL,
	chat_id    TEXT    NOT NULL,
	size       TEXT    NOT NULL,
	root_label TEXT    NOT NULL,
	payload    BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at DESC);
`

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error { return h.db.Close() }

// Save stores a successful generation and returns its id.
func (h *History) Save(chatID string, gen *GeneratedMap) (int64, error) {
	res, err := h.db.Exec(
		`INSERT INTO generations (created_at, chat_id, size, root_label, payload) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		chatID,
		gen.Size,
		gen.Tree.Label,
		[]byte(gen.Raw),
	)
	if err != nil {
		return 0, fmt.Errorf("saving generation: %w", err)
	}
	return res.LastInsertId()
}

// Recent lists the newest generations, newest first.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	rows, err := h.db.Query(
		`SELECT id, created_at, chat_id, size, root_label FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.ChatID, &e.Size, &e.RootLabel); err != nil {
			return nil, fmt.Errorf("reading generation row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, created); perr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Load rebuilds a stored generation's tree from its payload.
func (h *History) Load(id int64) (*GeneratedMap, error) {
	var payload []byte
	var size string
	err := h.db.QueryRow(`SELECT payload, size FROM generations WHERE id = ?`, id).Scan(&payload, &size)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("generation %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading generation: %w", err)
	}
	tree, err := ParseMindMap(payload)
	if err != nil {
		return nil, err
	}
	return &GeneratedMap{Tree: tree, Raw: json.RawMessage(payload), Size: size}, nil
}
