package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSupervisor(conn *fakeConn, availability time.Duration) *Supervisor {
	return NewSupervisor(conn, Topics{Prefix: "alarm"}, 2*time.Second, availability, func(string, []byte) {})
}

func TestConnectRetryTimer(t *testing.T) {
	conn := &fakeConn{connectErr: errors.New("refused")}
	s := newTestSupervisor(conn, 0)

	s.Tick(0)
	require.Equal(t, 1, conn.connects)

	// timer seeded at 2000ms: no attempt until it drains
	s.Tick(500 * time.Millisecond)
	s.Tick(1000 * time.Millisecond)
	require.Equal(t, 1, conn.connects)

	s.Tick(500 * time.Millisecond)
	require.Equal(t, 2, conn.connects)
}

func TestConnectSubscribesAndPublishesAvailability(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSupervisor(conn, 0)

	s.Tick(0)
	require.True(t, s.Connected())
	require.Equal(t, []string{"alarm/set"}, conn.subscribed)
	require.Equal(t, []publishRecord{
		{"alarm/get/available", "online", true},
	}, conn.published)
}

func TestReconnectAfterLoss(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSupervisor(conn, 0)

	s.Tick(0)
	require.True(t, s.Connected())

	conn.connected = false
	s.Tick(250 * time.Millisecond)
	require.True(t, s.Connected(), "reconnect happens within the same tick")
	require.Equal(t, 2, conn.connects)
	require.Equal(t, []string{"alarm/set", "alarm/set"}, conn.subscribed)
}

func TestAvailabilityHeartbeat(t *testing.T) {
	conn := &fakeConn{}
	s := newTestSupervisor(conn, time.Minute)

	s.Tick(0)
	require.Len(t, conn.published, 1)

	s.Tick(30 * time.Second)
	require.Len(t, conn.published, 1)
	s.Tick(30 * time.Second)
	require.Len(t, conn.published, 2)
}
