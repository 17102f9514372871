package handler

import (
	"errors"
	"log"
	"strconv"

	"hostelhub-backend/internal/model"
	"hostelhub-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	store service.MessageStore
}

func NewMessageHandler(store service.MessageStore) *MessageHandler {
	return &MessageHandler{store: store}
}

// Send persists a message for non-realtime clients.
// POST /api/v1/messages/send
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	msg, err := h.store.Create(c.Context(), req.SenderID, req.ReceiverID, req.Content)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// History returns the thread between two users, oldest first.
// GET /api/v1/messages?sender_id=&receiver_id=&limit=&offset=
//
// Loading history also marks messages from receiver_id to sender_id as read:
// the querying side is sender_id, and opening the thread clears their unread
// state. A state-changing GET is a quirk carried over from the original
// clients, which depend on it.
func (h *MessageHandler) History(c *fiber.Ctx) error {
	senderID, err1 := strconv.ParseInt(c.Query("sender_id"), 10, 64)
	receiverID, err2 := strconv.ParseInt(c.Query("receiver_id"), 10, 64)
	if err1 != nil || err2 != nil {
		return c.Status(400).JSON(fiber.Map{"error": "sender_id and receiver_id are required"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	msgs, err := h.store.GetHistory(c.Context(), senderID, receiverID, limit, offset)
	if err != nil {
		return h.storeError(c, err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	if _, err := h.store.MarkRead(c.Context(), senderID, receiverID); err != nil {
		log.Printf("[Messages] History mark-read side effect failed: %v", err)
	}

	return c.JSON(fiber.Map{"count": len(msgs), "messages": msgs})
}

// Conversations returns a user's inbox, newest conversation first.
// GET /api/v1/messages/conversations?user_id=
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}

	convs, err := h.store.Conversations(c.Context(), userID)
	if err != nil {
		return h.storeError(c, err)
	}
	if convs == nil {
		convs = []model.ConversationSummary{}
	}

	return c.JSON(fiber.Map{"count": len(convs), "conversations": convs})
}

// Unread returns per-counterpart unread counts.
// GET /api/v1/messages/unread?user_id=
func (h *MessageHandler) Unread(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}

	counts, err := h.store.UnreadCounts(c.Context(), userID)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.JSON(fiber.Map{"unreadCounts": counts})
}

// MarkRead flips unread messages from sender_id to receiver_id.
// PUT /api/v1/messages/read
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	var req model.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ReceiverID == 0 || req.SenderID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "receiver_id and sender_id are required"})
	}

	count, err := h.store.MarkRead(c.Context(), req.ReceiverID, req.SenderID)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "messages marked as read", "count": count})
}

// DeleteConversation hard-deletes all messages between a pair. Irreversible.
// DELETE /api/v1/messages/conversation?user1_id=&user2_id=
func (h *MessageHandler) DeleteConversation(c *fiber.Ctx) error {
	user1ID, err1 := strconv.ParseInt(c.Query("user1_id"), 10, 64)
	user2ID, err2 := strconv.ParseInt(c.Query("user2_id"), 10, 64)
	if err1 != nil || err2 != nil {
		return c.Status(400).JSON(fiber.Map{"error": "user1_id and user2_id are required"})
	}

	count, err := h.store.DeleteConversation(c.Context(), user1ID, user2ID)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "conversation deleted", "count": count})
}

func (h *MessageHandler) storeError(c *fiber.Ctx, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(400).JSON(fiber.Map{"error": ve.Msg})
	case errors.Is(err, model.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not found"})
	default:
		log.Printf("[Messages] storage error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "storage failure"})
	}
}
