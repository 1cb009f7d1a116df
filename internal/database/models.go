package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// User is a Telegram user known to the bot. ID is the Telegram user id.
// TotalUsed only ever grows; IsVerified never goes back to false.
type User struct {
	ID         int64          `db:"id"`
	Username   sql.NullString `db:"username"`
	FirstName  sql.NullString `db:"first_name"`
	LastName   sql.NullString `db:"last_name"`
	IsVerified bool           `db:"is_verified"`
	TotalUsed  int            `db:"total_used"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// Profile carries the identity fields seen on an inbound message.
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// LogKind classifies a message log entry.
type LogKind string

// Log kinds.
const (
	LogKindReply   LogKind = "reply"
	LogKindBlocked LogKind = "blocked"
	LogKindError   LogKind = "error"
)

// MessageLog is an append-only record of one terminal outcome.
type MessageLog struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Text      string         `db:"text"`
	Kind      LogKind        `db:"kind"`
	Meta      sql.NullString `db:"meta"`
	CreatedAt time.Time      `db:"created_at"`
}

// LogMeta is the structured metadata stored as JSON in MessageLog.Meta.
type LogMeta struct {
	Reason   string `json:"reason,omitempty"`
	Source   string `json:"source,omitempty"`
	Date     string `json:"date,omitempty"`
	Exercise int    `json:"exercise,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewMessageLog builds a log entry with meta encoded as JSON.
func NewMessageLog(userID int64, text string, kind LogKind, meta LogMeta) *MessageLog {
	entry := &MessageLog{UserID: userID, Text: text, Kind: kind}
	if meta != (LogMeta{}) {
		b, _ := json.Marshal(meta)
		entry.Meta = sql.NullString{String: string(b), Valid: true}
	}
	return entry
}

// DecodeMeta parses the entry's metadata. A missing blob yields a zero LogMeta.
func (m *MessageLog) DecodeMeta() (LogMeta, error) {
	var meta LogMeta
	if !m.Meta.Valid || m.Meta.String == "" {
		return meta, nil
	}
	err := json.Unmarshal([]byte(m.Meta.String), &meta)
	return meta, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
