package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"hostelhub-backend/internal/model"
	"hostelhub-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const readDeadline = 60 * time.Second

type WSHandler struct {
	chatSvc *service.ChatService
	authSvc *service.AuthService
}

func NewWSHandler(chatSvc *service.ChatService, authSvc *service.AuthService) *WSHandler {
	return &WSHandler{chatSvc: chatSvc, authSvc: authSvc}
}

// Upgrade authenticates the handshake and promotes the request to a
// websocket. A connection without a valid identity is refused before any
// presence or room state exists.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "token required"})
	}

	userID, username, err := h.authSvc.ValidateAccessToken(token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
	}

	c.Locals("user_id", userID)
	c.Locals("username", username)
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(int64)
	username, _ := c.Locals("username").(string)

	client := &service.Client{
		Conn:     c,
		UserID:   userID,
		Username: username,
		Send:     make(chan []byte, 256),
	}

	h.chatSvc.Connect(client)
	defer h.chatSvc.Disconnect(client)

	go client.WritePump()

	ctx := context.Background()

	c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		c.SetReadDeadline(time.Now().Add(readDeadline))

		var event model.WSEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}

		h.dispatch(ctx, client, &event)
	}
}

// dispatch routes one client event. Handlers for a single connection run
// here sequentially; ordering of a sender's messages follows from each send
// completing its persist-then-broadcast before the next is read.
func (h *WSHandler) dispatch(ctx context.Context, client *service.Client, event *model.WSEvent) {
	switch event.Type {
	case model.EventJoinConversation:
		var p model.JoinConversationPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || p.OtherUserID == 0 {
			return
		}
		h.chatSvc.JoinConversation(client, p.OtherUserID)

	case model.EventLeaveConversation:
		var p model.LeaveConversationPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || p.OtherUserID == 0 {
			return
		}
		h.chatSvc.LeaveConversation(client, p.OtherUserID)

	case model.EventSendMessage:
		var p model.SendMessagePayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return
		}
		h.chatSvc.SendMessage(ctx, client, p.ReceiverID, p.Content)

	case model.EventMarkRead:
		var p model.MarkReadPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || p.SenderID == 0 {
			return
		}
		h.chatSvc.MarkRead(ctx, client, p.SenderID)

	case model.EventTyping:
		var p model.TypingPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || p.ReceiverID == 0 {
			return
		}
		h.chatSvc.Typing(client, p.ReceiverID, false)

	case model.EventStopTyping:
		var p model.TypingPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || p.ReceiverID == 0 {
			return
		}
		h.chatSvc.Typing(client, p.ReceiverID, true)

	case model.EventPing:
		pong, _ := json.Marshal(model.WSEvent{Type: model.EventPong})
		client.TrySend(pong)

	default:
		log.Printf("WS: unknown event type %q from %s", event.Type, client.Username)
	}
}
