package service

import (
	"context"
	"encoding/json"
	"log"

	"hostelhub-backend/internal/model"
)

// MessageStore is the persistence surface the realtime layer depends on.
// Satisfied by repository.MessageRepository; tests substitute a fake.
type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID int64, content string) (*model.Message, error)
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	GetHistory(ctx context.Context, userA, userB int64, limit, offset int) ([]model.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error)
	UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, error)
	Conversations(ctx context.Context, userID int64) ([]model.ConversationSummary, error)
	DeleteConversation(ctx context.Context, userA, userB int64) (int64, error)
}

// ChatService is the protocol state machine behind one live connection:
// presence transitions, room membership and persist-then-broadcast delivery.
type ChatService struct {
	store    MessageStore
	hub      *Hub
	presence *PresenceRegistry
}

func NewChatService(store MessageStore, hub *Hub, presence *PresenceRegistry) *ChatService {
	return &ChatService{store: store, hub: hub, presence: presence}
}

// Connect registers an authenticated connection and announces the user if
// this is their first one.
func (s *ChatService) Connect(client *Client) {
	s.hub.Register(client)
	if s.presence.MarkOnline(client.UserID, client) {
		s.broadcastStatus(client.UserID, "online")
	}
}

// Disconnect tears the connection down: all rooms left, presence updated,
// offline announced when the last connection is gone. Presence is cleared
// first so personal-channel fan-out stops snapshotting a connection whose
// Send the hub is about to close.
func (s *ChatService) Disconnect(client *Client) {
	wentOffline := s.presence.MarkOffline(client.UserID, client)
	s.hub.Unregister(client)
	if wentOffline {
		s.broadcastStatus(client.UserID, "offline")
	}
}

func (s *ChatService) JoinConversation(client *Client, otherUserID int64) {
	room := RoomKey(client.UserID, otherUserID)
	s.hub.JoinRoom(client, room)
	client.SetCurrentRoom(room)
}

func (s *ChatService) LeaveConversation(client *Client, otherUserID int64) {
	room := RoomKey(client.UserID, otherUserID)
	s.hub.LeaveRoom(client, room)
	client.SetCurrentRoom("")
}

// SendMessage persists first, then fans out. A message that failed to
// persist is never broadcast; the sending connection alone gets an error
// event. On success the full message reaches the pair room and both
// personal channels exactly once per connection, and a receiver who is
// online but viewing a different conversation additionally gets a
// notification event.
func (s *ChatService) SendMessage(ctx context.Context, client *Client, receiverID int64, content string) {
	msg, err := s.store.Create(ctx, client.UserID, receiverID, content)
	if err != nil {
		log.Printf("WS: send from %d failed: %v", client.UserID, err)
		s.sendError(client, "failed to send message")
		return
	}

	room := RoomKey(msg.SenderID, msg.ReceiverID)

	if data := encodeEvent(model.EventNewMessage, msg); data != nil {
		s.hub.SendToConversation(room, msg.SenderID, msg.ReceiverID, data)
	}

	if msg.ReceiverID != client.UserID && s.presence.IsOnline(msg.ReceiverID) {
		notif := encodeEvent(model.EventMessageNotification, &model.MessageNotificationPayload{
			Message: msg,
			Sender:  msg.SenderName,
		})
		if notif != nil {
			for _, conn := range s.presence.Connections(msg.ReceiverID) {
				if conn.CurrentRoom() == room {
					continue
				}
				conn.TrySend(notif)
			}
		}
	}
}

// MarkRead flips unread messages from senderID to this connection's user
// and publishes the receipt to the pair room.
func (s *ChatService) MarkRead(ctx context.Context, client *Client, senderID int64) {
	count, err := s.store.MarkRead(ctx, client.UserID, senderID)
	if err != nil {
		log.Printf("WS: mark read for %d failed: %v", client.UserID, err)
		s.sendError(client, "failed to mark messages read")
		return
	}

	room := RoomKey(client.UserID, senderID)
	data := encodeEvent(model.EventMessagesRead, &model.MessagesReadPayload{
		SenderID:   senderID,
		ReceiverID: client.UserID,
		Count:      count,
	})
	if data != nil {
		s.hub.SendToRoom(room, data, nil)
	}
}

// Typing relays a typing indicator to the pair room, excluding the typist's
// own connection. Nothing is persisted and nothing expires server-side; the
// client is responsible for the matching stop event.
func (s *ChatService) Typing(client *Client, receiverID int64, stopped bool) {
	eventType := model.EventUserTyping
	if stopped {
		eventType = model.EventUserStopTyping
	}
	data := encodeEvent(eventType, &model.UserTypingPayload{UserID: client.UserID})
	if data != nil {
		s.hub.SendToRoom(RoomKey(client.UserID, receiverID), data, client)
	}
}

func (s *ChatService) broadcastStatus(userID int64, status string) {
	data := encodeEvent(model.EventUserStatus, &model.UserStatusPayload{UserID: userID, Status: status})
	if data != nil {
		s.hub.Broadcast(data)
	}
}

func (s *ChatService) sendError(client *Client, message string) {
	if data := encodeEvent(model.EventError, &model.ErrorPayload{Message: message}); data != nil {
		client.TrySend(data)
	}
}

func encodeEvent(eventType string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(&model.WSEvent{Type: eventType, Data: raw})
	if err != nil {
		return nil
	}
	return data
}
