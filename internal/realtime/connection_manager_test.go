package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	m := NewManager()
	user := uuid.New()

	conn := m.Register(user, 1, &Client{send: make(chan []byte, 1)})
	require.NotNil(t, conn)

	found, ok := m.Lookup(user, 1)
	require.True(t, ok)
	require.Equal(t, conn.ID, found.ID)
}

func TestRegisterEvictsOlderConnectionForSameDevice(t *testing.T) {
	m := NewManager()
	user := uuid.New()

	first := m.Register(user, 1, &Client{send: make(chan []byte, 1)})
	second := m.Register(user, 1, &Client{send: make(chan []byte, 1)})

	require.NotEqual(t, first.ID, second.ID)
	found, ok := m.Lookup(user, 1)
	require.True(t, ok)
	require.Equal(t, second.ID, found.ID)
}

func TestUnregisterRemovesFromBothMaps(t *testing.T) {
	m := NewManager()
	user := uuid.New()

	conn := m.Register(user, 1, &Client{send: make(chan []byte, 1)})
	m.Unregister(conn.ID)

	_, ok := m.Lookup(user, 1)
	require.False(t, ok)
	require.Empty(t, m.ListByUser(user))
}

func TestListByUserReturnsSnapshot(t *testing.T) {
	m := NewManager()
	user := uuid.New()

	m.Register(user, 1, &Client{send: make(chan []byte, 1)})
	m.Register(user, 2, &Client{send: make(chan []byte, 1)})

	conns := m.ListByUser(user)
	require.Len(t, conns, 2)
}
