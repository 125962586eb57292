package ws

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(&HubOptions{Logger: logger})
}

func newTestConnection() *Connection {
	return &Connection{send: make(chan []byte, 4)}
}

func TestJoinAndLeaveChannel(t *testing.T) {
	hub := newTestHub()
	conn := newTestConnection()

	hub.JoinChannel("tenant/a", conn)
	require.Equal(t, 1, hub.ConnectionsInChannel("tenant/a"))

	// Joining twice is idempotent.
	hub.JoinChannel("tenant/a", conn)
	require.Equal(t, 1, hub.ConnectionsInChannel("tenant/a"))

	hub.LeaveChannel("tenant/a", conn)
	require.Equal(t, 0, hub.ConnectionsInChannel("tenant/a"))
}

func TestBroadcastStaysInChannel(t *testing.T) {
	hub := newTestHub()
	inRoom := newTestConnection()
	outOfRoom := newTestConnection()

	hub.JoinChannel("tenant/a", inRoom)
	hub.JoinChannel("tenant/b", outOfRoom)

	hub.BroadcastToChannel("tenant/a", []byte("hello"))

	select {
	case msg := <-inRoom.send:
		require.Equal(t, []byte("hello"), msg)
	default:
		t.Fatal("expected message in tenant/a room")
	}

	select {
	case <-outOfRoom.send:
		t.Fatal("message leaked into tenant/b room")
	default:
	}
}

func TestSlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub()
	conn := &Connection{send: make(chan []byte, 1)}
	hub.JoinChannel("tenant/a", conn)

	// Second message overflows the buffer and is dropped instead of
	// blocking the caller.
	hub.BroadcastToChannel("tenant/a", []byte("one"))
	hub.BroadcastToChannel("tenant/a", []byte("two"))

	require.Equal(t, []byte("one"), <-conn.send)
	select {
	case <-conn.send:
		t.Fatal("expected second message to be dropped")
	default:
	}
}
