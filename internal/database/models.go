package database

import "time"

// Message is one recorded chat message. The pair (ChatID, MessageID) is unique, so
// recording an edited message replaces its content.
type Message struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	MessageID int       `db:"message_id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Content   string    `db:"content"`
	IsBot     bool      `db:"is_bot"`
	Timestamp time.Time `db:"timestamp"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
