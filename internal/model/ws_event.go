package model

import "encoding/json"

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client -> server event types.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventMarkRead          = "mark_read"
	EventTyping            = "typing"
	EventStopTyping        = "stop_typing"
	EventPing              = "ping"
)

// Server -> client event types.
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventMessagesRead        = "messages_read"
	EventUserTyping          = "user_typing"
	EventUserStopTyping      = "user_stop_typing"
	EventUserStatus          = "user_status"
	EventError               = "error"
	EventPong                = "pong"
)

type JoinConversationPayload struct {
	OtherUserID int64 `json:"other_user_id"`
}

type LeaveConversationPayload struct {
	OtherUserID int64 `json:"other_user_id"`
}

type SendMessagePayload struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

type MarkReadPayload struct {
	SenderID int64 `json:"sender_id"`
}

type TypingPayload struct {
	ReceiverID int64 `json:"receiver_id"`
}

type MessageNotificationPayload struct {
	Message *Message `json:"message"`
	Sender  string   `json:"sender"`
}

type MessagesReadPayload struct {
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
	Count      int64 `json:"count"`
}

type UserTypingPayload struct {
	UserID int64 `json:"user_id"`
}

type UserStatusPayload struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"` // "online" or "offline"
}

type ErrorPayload struct {
	Message string `json:"message"`
}
