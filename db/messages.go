package db

import (
	"database/sql"
	"errors"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Action    bool      `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

const messageColumns = `id, channel, sender, text, action, created_at`

func (db *DB) InsertMessage(id, channel, sender, text string, action bool) (*Message, error) {
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO messages (id, channel, sender, text, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, channel, sender, text, action, now)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Channel:   channel,
		Sender:    sender,
		Text:      text,
		Action:    action,
		CreatedAt: now,
	}, nil
}

// LastMessageFrom returns sender's most recent message in channel, or nil if
// there is none.
func (db *DB) LastMessageFrom(channel, sender string) (*Message, error) {
	var m Message
	err := db.QueryRow(`
		SELECT `+messageColumns+`
		FROM messages WHERE channel = ? AND sender = ?
		ORDER BY seq DESC LIMIT 1
	`, channel, sender).Scan(&m.ID, &m.Channel, &m.Sender, &m.Text, &m.Action, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages returns up to limit messages of channel older than before (if
// set), oldest first.
func (db *DB) GetMessages(channel string, before *time.Time, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE channel = ?`
	args := []any{channel}
	if before != nil {
		query += ` AND created_at < ?`
		args = append(args, before.UTC())
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Channel, &m.Sender, &m.Text, &m.Action, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
