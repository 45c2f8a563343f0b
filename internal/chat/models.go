package chat

import "time"

// DefaultSession is the sentinel used when callers do not name a session.
const DefaultSession = "default"

// Chat is one persisted turn of a conversation. Rows are append-only: a turn
// is never updated or deleted after insertion.
type Chat struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(64);index;not null" json:"session_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

func (Chat) TableName() string { return "chats" }

// SessionSummary is a derived view of one session: chats grouped by
// session id. Sessions are not stored as rows of their own.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int64     `json:"message_count"`
}
