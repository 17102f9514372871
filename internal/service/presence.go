package service

import "sync"

// PresenceRegistry knows which users currently have at least one live
// connection. It is constructed at server start and injected wherever online
// state is needed; a user with zero connections is absent from the map.
type PresenceRegistry struct {
	mu     sync.RWMutex
	online map[int64]map[*Client]bool
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{online: make(map[int64]map[*Client]bool)}
}

// MarkOnline records a connection and reports whether the user just came
// online (first connection).
func (p *PresenceRegistry) MarkOnline(userID int64, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns, ok := p.online[userID]
	if !ok {
		conns = make(map[*Client]bool)
		p.online[userID] = conns
	}
	conns[c] = true
	return !ok
}

// MarkOffline removes a connection and reports whether the user just went
// offline (last connection gone).
func (p *PresenceRegistry) MarkOffline(userID int64, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns, ok := p.online[userID]
	if !ok {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(p.online, userID)
		return true
	}
	return false
}

func (p *PresenceRegistry) IsOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online[userID]) > 0
}

// Connections snapshots a user's live connections (their personal channel).
func (p *PresenceRegistry) Connections(userID int64) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conns := make([]*Client, 0, len(p.online[userID]))
	for c := range p.online[userID] {
		conns = append(conns, c)
	}
	return conns
}

func (p *PresenceRegistry) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online)
}
