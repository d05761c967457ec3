package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const defaultRecentLimit = 100

// Store defines the message history operations. Methods accept a context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a message, or updates the content of an already recorded one.
	SaveMessage(ctx context.Context, message *Message) error

	// GetRecentMessages returns up to limit messages of a chat, newest first.
	GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]*Message, error)

	// DeleteChatMessages removes the whole history of a chat.
	DeleteChatMessages(ctx context.Context, chatID int64) (int64, error)

	// PruneMessages removes messages with a timestamp before cutoff.
	PruneMessages(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.ChatID == 0 {
		return errors.New("message must have a non-zero chat_id")
	}
	if message.Content == "" {
		return errors.New("message must have non-empty content")
	}
	if message.Timestamp.IsZero() {
		return errors.New("message must have a non-zero timestamp")
	}

	now := time.Now().UTC()
	message.Timestamp = message.Timestamp.UTC().Truncate(time.Second)
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
        INSERT INTO messages (chat_id, message_id, user_id, username, content, is_bot, timestamp, created_at, updated_at)
        VALUES (:chat_id, :message_id, :user_id, :username, :content, :is_bot, :timestamp, :created_at, :updated_at)
        ON CONFLICT (chat_id, message_id) DO UPDATE SET
            content = excluded.content,
            username = excluded.username,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to save message (chat %d, message %d): %w", message.ChatID, message.MessageID, err)
	}

	return nil
}

func (s *sqlxStore) GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]*Message, error) {
	if chatID == 0 {
		return nil, errors.New("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
        SELECT id, chat_id, message_id, user_id, username, content, is_bot, timestamp, created_at, updated_at
        FROM messages
        WHERE chat_id = ?
        ORDER BY timestamp DESC, message_id DESC
        LIMIT ?;
    `

	var messages []*Message
	if err := s.db.SelectContext(ctx, &messages, query, chatID, limit); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error fetching recent messages", "chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get messages for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages", "chat_id", chatID, "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) DeleteChatMessages(ctx context.Context, chatID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?;", chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages for chat %d: %w", chatID, err)
	}
	return rowsAffected(result)
}

func (s *sqlxStore) PruneMessages(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE timestamp < ?;", cutoff.UTC().Truncate(time.Second))
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "Pruned messages", "cutoff", cutoff, "deleted", n)
	return n, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
