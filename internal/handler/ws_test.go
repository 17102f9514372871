package handler

import (
	"context"
	"encoding/json"
	"testing"

	"hostelhub-backend/internal/model"
	"hostelhub-backend/internal/service"
)

func newTestWS(store *fakeMessageStore) (*WSHandler, *service.Hub, *service.PresenceRegistry) {
	presence := service.NewPresenceRegistry()
	hub := service.NewHub(presence)
	chatSvc := service.NewChatService(store, hub, presence)
	authSvc := service.NewAuthService(nil, "test-secret")
	return NewWSHandler(chatSvc, authSvc), hub, presence
}

func event(t *testing.T, eventType string, payload any) *model.WSEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &model.WSEvent{Type: eventType, Data: raw}
}

func TestDispatchSendMessage(t *testing.T) {
	store := &fakeMessageStore{}
	h, _, presence := newTestWS(store)

	a := &service.Client{UserID: 1, Username: "alice", Send: make(chan []byte, 16)}
	b := &service.Client{UserID: 2, Username: "bob", Send: make(chan []byte, 16)}
	presence.MarkOnline(1, a)
	presence.MarkOnline(2, b)

	h.dispatch(context.Background(), a, event(t, model.EventSendMessage,
		&model.SendMessagePayload{ReceiverID: 2, Content: "hi"}))

	if len(b.Send) == 0 {
		t.Fatalf("receiver got no events")
	}
	var ev model.WSEvent
	if err := json.Unmarshal(<-b.Send, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != model.EventNewMessage {
		t.Fatalf("got %q, want new_message", ev.Type)
	}
}

func TestDispatchJoinTracksCurrentRoom(t *testing.T) {
	h, hub, _ := newTestWS(&fakeMessageStore{})

	a := &service.Client{UserID: 1, Username: "alice", Send: make(chan []byte, 16)}
	h.dispatch(context.Background(), a, event(t, model.EventJoinConversation,
		&model.JoinConversationPayload{OtherUserID: 2}))

	if got := a.CurrentRoom(); got != service.RoomKey(1, 2) {
		t.Fatalf("current room = %q, want %q", got, service.RoomKey(1, 2))
	}

	// Room membership is live: a room broadcast reaches the client.
	hub.SendToRoom(service.RoomKey(1, 2), []byte("x"), nil)
	if len(a.Send) != 1 {
		t.Fatalf("expected joined client to receive room traffic")
	}

	h.dispatch(context.Background(), a, event(t, model.EventLeaveConversation,
		&model.LeaveConversationPayload{OtherUserID: 2}))
	if a.CurrentRoom() != "" {
		t.Fatalf("leave should clear current room")
	}
}

func TestDispatchIgnoresMalformedAndUnknownEvents(t *testing.T) {
	h, _, _ := newTestWS(&fakeMessageStore{})
	a := &service.Client{UserID: 1, Username: "alice", Send: make(chan []byte, 16)}

	h.dispatch(context.Background(), a, &model.WSEvent{Type: model.EventSendMessage, Data: json.RawMessage(`{"receiver_id":"nope"}`)})
	h.dispatch(context.Background(), a, &model.WSEvent{Type: "no_such_event"})

	if len(a.Send) != 0 {
		t.Fatalf("malformed/unknown events should produce nothing, got %d", len(a.Send))
	}
}

func TestDispatchPing(t *testing.T) {
	h, _, _ := newTestWS(&fakeMessageStore{})
	a := &service.Client{UserID: 1, Username: "alice", Send: make(chan []byte, 16)}

	h.dispatch(context.Background(), a, &model.WSEvent{Type: model.EventPing})

	var ev model.WSEvent
	if err := json.Unmarshal(<-a.Send, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != model.EventPong {
		t.Fatalf("got %q, want pong", ev.Type)
	}
}
