package model

import "time"

// Message is a stored direct message between two users. Sender, receiver,
// content and timestamp are immutable once persisted; only the read flag
// changes, and only from false to true.
type Message struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	ReceiverID   int64     `json:"receiver_id"`
	Content      string    `json:"content"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
	SenderName   string    `json:"sender_name,omitempty"`
	ReceiverName string    `json:"receiver_name,omitempty"`
}

// ConversationSummary is one row of a user's inbox: the counterpart, the most
// recent message exchanged with them, and how many of their messages are
// still unread.
type ConversationSummary struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	LastMessage *Message `json:"last_message"`
	UnreadCount int64    `json:"unread_count"`
}

type SendMessageRequest struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

type MarkReadRequest struct {
	ReceiverID int64 `json:"receiver_id"`
	SenderID   int64 `json:"sender_id"`
}
