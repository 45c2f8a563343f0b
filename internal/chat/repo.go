package chat

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docchat/docchat/internal/ai"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// InsertTurn appends one turn. The timestamp is assigned here, from the
// server clock in UTC, so ordering within a session follows insert order.
func (r *Repo) InsertTurn(ctx context.Context, c *Chat) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// ListBySession returns every turn of a session, oldest first.
func (r *Repo) ListBySession(ctx context.Context, sessionID string) ([]Chat, error) {
	var chats []Chat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// ListRecentDesc returns the most recent turns of a session (newest first).
func (r *Repo) ListRecentDesc(ctx context.Context, sessionID string, limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = 20
	}
	var chats []Chat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// RecentMessages returns up to limit recent turns as model messages, oldest
// first, for seeding agent memory.
func (r *Repo) RecentMessages(ctx context.Context, sessionID string, limit int) ([]ai.Message, error) {
	recent, err := r.ListRecentDesc(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	msgs := make([]ai.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		role := ai.RoleAssistant
		if recent[i].IsUser {
			role = ai.RoleUser
		}
		msgs = append(msgs, ai.Message{Role: role, Content: recent[i].Message})
	}
	return msgs, nil
}

type sessionGroup struct {
	SessionID    string
	MessageCount int64
}

// SessionGroups aggregates turns by session id. Only the count is computed
// in SQL; the sqlite driver hands back MAX(timestamp) as a bare string, so
// the latest timestamp is resolved per session via LatestMessage instead.
func (r *Repo) SessionGroups(ctx context.Context) ([]sessionGroup, error) {
	var groups []sessionGroup
	err := r.db.WithContext(ctx).
		Model(&Chat{}).
		Select("session_id, COUNT(*) AS message_count").
		Group("session_id").
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// LatestMessage returns the most recent turn of a session.
func (r *Repo) LatestMessage(ctx context.Context, sessionID string) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EarliestMessage returns the first turn of a session, used to derive a
// session title.
func (r *Repo) EarliestMessage(ctx context.Context, sessionID string) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
