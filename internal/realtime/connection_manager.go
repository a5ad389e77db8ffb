// Package realtime implements the Connection Manager (spec.md §4.8):
// an in-process, per-process registry of live websocket connections,
// adapted from the teacher's internal/websocket/hub.go Hub, trimmed of
// its Redis pub/sub cross-server fan-out (reserved for future horizontal
// scale, see spec.md §9) since this component is explicitly single-process.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// ConnID identifies a single live connection.
type ConnID uint64

// Conn is what the Connection Manager tracks per connection: who it
// belongs to and a handle to push frames to it.
type Conn struct {
	ID       ConnID
	UserID   uuid.UUID
	DeviceID int64
	Client   *Client
}

// Manager holds the two maps spec.md §4.8 names, under one RWMutex.
type Manager struct {
	mu          sync.RWMutex
	connections map[ConnID]*Conn
	byUser      map[uuid.UUID]map[ConnID]struct{}
	nextID      ConnID
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[ConnID]*Conn),
		byUser:      make(map[uuid.UUID]map[ConnID]struct{}),
	}
}

// Register inserts a connection into both maps. If the same (user, device)
// is already connected, the older connection is evicted by closing it —
// device is unique within a user by construction of the auth step.
func (m *Manager) Register(userID uuid.UUID, deviceID int64, client *Client) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.connections {
		if c.UserID == userID && c.DeviceID == deviceID {
			delete(m.connections, id)
			if set, ok := m.byUser[userID]; ok {
				delete(set, id)
			}
			c.Client.Close()
		}
	}

	m.nextID++
	conn := &Conn{ID: m.nextID, UserID: userID, DeviceID: deviceID, Client: client}
	m.connections[conn.ID] = conn
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[ConnID]struct{})
	}
	m.byUser[userID][conn.ID] = struct{}{}
	return conn
}

// Unregister removes a connection from both maps.
func (m *Manager) Unregister(id ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return
	}
	delete(m.connections, id)
	if set, ok := m.byUser[conn.UserID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.byUser, conn.UserID)
		}
	}
}

// ListByUser returns a snapshot copy of a user's live connections.
func (m *Manager) ListByUser(userID uuid.UUID) []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.byUser[userID]
	out := make([]*Conn, 0, len(set))
	for id := range set {
		if c, ok := m.connections[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the first connection matching (user, device), if any.
func (m *Manager) Lookup(userID uuid.UUID, deviceID int64) (*Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id := range m.byUser[userID] {
		if c, ok := m.connections[id]; ok && c.DeviceID == deviceID {
			return c, true
		}
	}
	return nil, false
}
