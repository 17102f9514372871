package service

import "testing"

func TestPresenceOnlineOfflineTransitions(t *testing.T) {
	p := NewPresenceRegistry()
	c1 := &Client{UserID: 1, Send: make(chan []byte, 1)}
	c2 := &Client{UserID: 1, Send: make(chan []byte, 1)}

	if p.IsOnline(1) {
		t.Fatalf("user 1 should start offline")
	}

	if !p.MarkOnline(1, c1) {
		t.Errorf("first connection should report the user coming online")
	}
	if p.MarkOnline(1, c2) {
		t.Errorf("second connection should not report a transition")
	}
	if !p.IsOnline(1) {
		t.Fatalf("user 1 should be online with two connections")
	}

	if p.MarkOffline(1, c1) {
		t.Errorf("dropping one of two connections should not report offline")
	}
	if !p.IsOnline(1) {
		t.Fatalf("user 1 should still be online")
	}

	if !p.MarkOffline(1, c2) {
		t.Errorf("dropping the last connection should report offline")
	}
	if p.IsOnline(1) {
		t.Fatalf("user 1 should be offline")
	}
	if p.OnlineCount() != 0 {
		t.Fatalf("expected empty registry, got %d users", p.OnlineCount())
	}
}

func TestPresenceMarkOfflineUnknownUser(t *testing.T) {
	p := NewPresenceRegistry()
	c := &Client{UserID: 7, Send: make(chan []byte, 1)}
	if p.MarkOffline(7, c) {
		t.Fatalf("offline for a user never online should not report a transition")
	}
}

func TestPresenceConnectionsSnapshot(t *testing.T) {
	p := NewPresenceRegistry()
	c1 := &Client{UserID: 3, Send: make(chan []byte, 1)}
	c2 := &Client{UserID: 3, Send: make(chan []byte, 1)}
	p.MarkOnline(3, c1)
	p.MarkOnline(3, c2)

	conns := p.Connections(3)
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}
	if len(p.Connections(99)) != 0 {
		t.Fatalf("unknown user should have no connections")
	}
}
