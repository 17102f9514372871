package repository

import (
	"context"
	"errors"

	"hostelhub-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create persists a message and returns it enriched with both display names.
// The timestamp is assigned by the database, never by the client.
func (r *MessageRepository) Create(ctx context.Context, senderID, receiverID int64, content string) (*model.Message, error) {
	if senderID == 0 || receiverID == 0 {
		return nil, model.Invalidf("sender_id and receiver_id are required")
	}
	if content == "" {
		return nil, model.Invalidf("content is required")
	}

	m := &model.Message{}
	err := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO messages (sender_id, receiver_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, sender_id, receiver_id, content, read, created_at
		)
		SELECT ins.id, ins.sender_id, ins.receiver_id, ins.content, ins.read, ins.created_at,
		       su.username, ru.username
		FROM ins
		JOIN users su ON su.id = ins.sender_id
		JOIN users ru ON ru.id = ins.receiver_id
	`, senderID, receiverID, content).Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
		&m.SenderName, &m.ReceiverName,
	)
	if err != nil {
		return nil, model.Storagef("insert message", err)
	}
	return m, nil
}

// GetByID fetches a single message with display names. No REST route maps
// to it; callers reach it through the MessageStore interface.
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	m := &model.Message{}
	err := r.pool.QueryRow(ctx, `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       su.username, ru.username
		FROM messages m
		JOIN users su ON su.id = m.sender_id
		JOIN users ru ON ru.id = m.receiver_id
		WHERE m.id = $1
	`, id).Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
		&m.SenderName, &m.ReceiverName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Storagef("get message", err)
	}
	return m, nil
}

// GetHistory returns the thread between two users oldest-first, so a client
// can prepend older pages to a scrollback while the newest stay at the
// bottom. Limit is clamped; the reference behavior of unbounded pages is a
// resource-exhaustion risk.
func (r *MessageRepository) GetHistory(ctx context.Context, userA, userB int64, limit, offset int) ([]model.Message, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       su.username, ru.username
		FROM messages m
		JOIN users su ON su.id = m.sender_id
		JOIN users ru ON ru.id = m.receiver_id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $3 OFFSET $4
	`, userA, userB, limit, offset)
	if err != nil {
		return nil, model.Storagef("query history", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
			&m.SenderName, &m.ReceiverName,
		); err != nil {
			return nil, model.Storagef("scan history", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Storagef("read history", err)
	}
	return msgs, nil
}

// MarkRead flips every unread message from sender to receiver and returns how
// many rows changed. Idempotent: a second call returns 0.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND read = FALSE
	`, receiverID, senderID)
	if err != nil {
		return 0, model.Storagef("mark read", err)
	}
	return tag.RowsAffected(), nil
}

// UnreadCounts returns, per counterpart, how many of their messages to userID
// are still unread. Counterparts with nothing unread are absent from the map.
func (r *MessageRepository) UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND read = FALSE
		GROUP BY sender_id
	`, userID)
	if err != nil {
		return nil, model.Storagef("query unread counts", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var senderID, count int64
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, model.Storagef("scan unread counts", err)
		}
		counts[senderID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, model.Storagef("read unread counts", err)
	}
	return counts, nil
}

// Conversations returns one summary per counterpart, newest conversation
// first. Both message directions land in the same bucket, and the last
// message per bucket is the one with the highest id. Ids from a single
// BIGSERIAL sequence increase with time here; under a multi-writer backend
// that proxy could disagree with timestamp order.
func (r *MessageRepository) Conversations(ctx context.Context, userID int64) ([]model.ConversationSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       su.username, ru.username
		FROM messages m
		JOIN (
			SELECT MAX(id) AS id
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			GROUP BY LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)
		) last ON last.id = m.id
		JOIN users su ON su.id = m.sender_id
		JOIN users ru ON ru.id = m.receiver_id
		ORDER BY m.id DESC
	`, userID)
	if err != nil {
		return nil, model.Storagef("query conversations", err)
	}
	defer rows.Close()

	var summaries []model.ConversationSummary
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
			&m.SenderName, &m.ReceiverName,
		); err != nil {
			return nil, model.Storagef("scan conversations", err)
		}

		s := model.ConversationSummary{LastMessage: &m}
		if m.SenderID == userID {
			s.UserID, s.Username = m.ReceiverID, m.ReceiverName
		} else {
			s.UserID, s.Username = m.SenderID, m.SenderName
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Storagef("read conversations", err)
	}

	if len(summaries) == 0 {
		return summaries, nil
	}

	unread, err := r.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].UnreadCount = unread[summaries[i].UserID]
	}
	return summaries, nil
}

// DeleteConversation hard-deletes every message between the pair, in both
// directions. Irreversible.
func (r *MessageRepository) DeleteConversation(ctx context.Context, userA, userB int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
	`, userA, userB)
	if err != nil {
		return 0, model.Storagef("delete conversation", err)
	}
	return tag.RowsAffected(), nil
}
