package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/pkg/randstr"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return errors.New("connection broken")
	}
	c.sent = append(c.sent, data)

	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeConn) sentTypes(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.sent))
	for _, data := range c.sent {
		var msg struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		types = append(types, msg.Type)
	}

	return types
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func newTestRegistry(onEvict EvictFunc) *Registry {
	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")

	return NewRegistry(randstr.New(letterBytes), &RegistryConfig{
		MembersLimit: 9,
		OnEvict:      onEvict,
	}, slog.Default())
}

func admit(t *testing.T, r *Registry, roomId, memberId, token string, conn Conn) AdmitResponse {
	t.Helper()

	resp, err := r.Admit(context.Background(), &AdmitParams{
		RoomId:       roomId,
		MemberId:     memberId,
		SessionToken: token,
		Username:     "user-" + memberId,
		Conn:         conn,
	})
	require.NoError(t, err)

	return resp
}

func TestAdmitCreatesRoomWithCallerAsHost(t *testing.T) {
	r := newTestRegistry(nil)

	resp := admit(t, r, "r1", "u1", "t1", &fakeConn{})

	assert.Equal(t, "u1", resp.MemberId)
	assert.True(t, resp.IsHost)
	assert.True(t, resp.RoomCreated)
	assert.Equal(t, 1, r.Len())

	rm, ok := r.GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, "u1", rm.HostId())
	assert.Equal(t, 1, rm.MemberCount())
}

func TestAdmitMatchingTokenReplacesConnection(t *testing.T) {
	r := newTestRegistry(nil)

	oldConn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", oldConn)

	newConn := &fakeConn{}
	resp := admit(t, r, "r1", "u1", "t1", newConn)

	assert.Equal(t, "u1", resp.MemberId)
	assert.True(t, resp.Reconnected)
	assert.True(t, oldConn.isClosed(), "stale connection must be closed")

	rm, _ := r.GetRoom("r1")
	assert.Equal(t, 1, rm.MemberCount(), "member count must be unchanged")
}

func TestAdmitMismatchedTokenMintsSyntheticId(t *testing.T) {
	r := newTestRegistry(nil)

	originalConn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", originalConn)

	resp := admit(t, r, "r1", "u1", "other-token", &fakeConn{})

	assert.NotEqual(t, "u1", resp.MemberId)
	assert.Contains(t, resp.MemberId, syntheticIdPrefix)
	assert.False(t, resp.Reconnected)
	assert.False(t, originalConn.isClosed(), "original connection must be untouched")

	rm, _ := r.GetRoom("r1")
	assert.Equal(t, 2, rm.MemberCount())
	assert.Equal(t, "u1", rm.HostId(), "host must not change")
}

func TestAdmitMembersLimit(t *testing.T) {
	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	r := NewRegistry(randstr.New(letterBytes), &RegistryConfig{MembersLimit: 2}, slog.Default())

	admit(t, r, "r1", "u1", "t1", &fakeConn{})
	admit(t, r, "r1", "u2", "t2", &fakeConn{})

	_, err := r.Admit(context.Background(), &AdmitParams{
		RoomId:       "r1",
		MemberId:     "u3",
		SessionToken: "t3",
		Username:     "user-u3",
		Conn:         &fakeConn{},
	})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}

func TestSessionMatches(t *testing.T) {
	r := newTestRegistry(nil)
	admit(t, r, "r1", "u1", "t1", &fakeConn{})

	assert.True(t, r.SessionMatches("r1", "u1", "t1"))
	assert.False(t, r.SessionMatches("r1", "u1", "wrong"))
	assert.False(t, r.SessionMatches("r1", "nobody", "t1"))
	assert.False(t, r.SessionMatches("no-room", "u1", "t1"))
}

func TestRetireLastMemberDeletesRoom(t *testing.T) {
	evicted := make([]string, 0, 1)
	r := newTestRegistry(func(roomId string) {
		evicted = append(evicted, roomId)
	})

	conn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", conn)

	resp := r.Retire(context.Background(), "r1", "u1", conn)

	assert.True(t, resp.Removed)
	assert.True(t, resp.RoomDeleted)
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []string{"r1"}, evicted)

	// a fresh admit for the same room id creates a fresh room with a fresh host
	freshResp := admit(t, r, "r1", "u2", "t2", &fakeConn{})
	assert.True(t, freshResp.RoomCreated)
	assert.True(t, freshResp.IsHost)
}

func TestRetireGuardedByExpectedConnection(t *testing.T) {
	r := newTestRegistry(nil)

	staleConn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", staleConn)

	// same id reconnects, replacing the connection
	freshConn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", freshConn)

	// the stale retire must not delete the fresh connection
	resp := r.Retire(context.Background(), "r1", "u1", staleConn)
	assert.False(t, resp.Removed)

	rm, ok := r.GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, 1, rm.MemberCount())
}

func TestRetireUnknownRoomOrMember(t *testing.T) {
	r := newTestRegistry(nil)
	admit(t, r, "r1", "u1", "t1", &fakeConn{})

	assert.False(t, r.Retire(context.Background(), "no-room", "u1", nil).Removed)
	assert.False(t, r.Retire(context.Background(), "r1", "nobody", nil).Removed)
}

func TestReassignHostPicksEarliestAdmitted(t *testing.T) {
	r := newTestRegistry(nil)

	hostConn := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", hostConn)
	admit(t, r, "r1", "u2", "t2", &fakeConn{})
	admit(t, r, "r1", "u3", "t3", &fakeConn{})

	// host still connected, nothing changes
	hostId, changed := r.ReassignHostIfNeeded("r1")
	assert.False(t, changed)
	assert.Equal(t, "u1", hostId)

	r.Retire(context.Background(), "r1", "u1", hostConn)

	hostId, changed = r.ReassignHostIfNeeded("r1")
	assert.True(t, changed)
	assert.Equal(t, "u2", hostId, "earliest admitted survivor becomes host")

	rm, _ := r.GetRoom("r1")
	assert.Equal(t, "u2", rm.HostId())
}

func TestBroadcast(t *testing.T) {
	r := newTestRegistry(nil)

	conn1 := &fakeConn{}
	conn2 := &fakeConn{}
	conn3 := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", conn1)
	admit(t, r, "r1", "u2", "t2", conn2)
	admit(t, r, "r1", "u3", "t3", conn3)

	err := r.Broadcast(context.Background(), "r1", &domain.Output{
		Type:    domain.MsgQueueUpdated,
		Payload: domain.QueueUpdatedPayload{CurrentIndex: -1},
	}, "u2")
	require.NoError(t, err)

	assert.Equal(t, []string{domain.MsgQueueUpdated}, conn1.sentTypes(t))
	assert.Empty(t, conn2.sentTypes(t), "excluded member must not receive the message")
	assert.Equal(t, []string{domain.MsgQueueUpdated}, conn3.sentTypes(t))
}

func TestBroadcastRetiresFailedConnections(t *testing.T) {
	r := newTestRegistry(nil)

	conn1 := &fakeConn{}
	broken := &fakeConn{fail: true}
	admit(t, r, "r1", "u1", "t1", conn1)
	admit(t, r, "r1", "u2", "t2", broken)

	err := r.Broadcast(context.Background(), "r1", &domain.Output{Type: domain.MsgQueueUpdated}, "")
	require.NoError(t, err)

	rm, ok := r.GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, 1, rm.MemberCount(), "failed member must be retired")
	assert.True(t, broken.isClosed())
	assert.Equal(t, []string{domain.MsgQueueUpdated}, conn1.sentTypes(t))
}

func TestBroadcastUnknownRoom(t *testing.T) {
	r := newTestRegistry(nil)

	err := r.Broadcast(context.Background(), "no-room", &domain.Output{Type: domain.MsgQueueUpdated}, "")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUnicast(t *testing.T) {
	r := newTestRegistry(nil)

	conn1 := &fakeConn{}
	conn2 := &fakeConn{}
	admit(t, r, "r1", "u1", "t1", conn1)
	admit(t, r, "r1", "u2", "t2", conn2)

	err := r.Unicast(context.Background(), "r1", "u1", &domain.Output{Type: domain.MsgHostChanged})
	require.NoError(t, err)

	assert.Equal(t, []string{domain.MsgHostChanged}, conn1.sentTypes(t))
	assert.Empty(t, conn2.sentTypes(t))

	err = r.Unicast(context.Background(), "r1", "nobody", &domain.Output{Type: domain.MsgHostChanged})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMembersOrderedByAdmission(t *testing.T) {
	r := newTestRegistry(nil)

	admit(t, r, "r1", "u1", "t1", &fakeConn{})
	admit(t, r, "r1", "u2", "t2", &fakeConn{})
	admit(t, r, "r1", "u3", "t3", &fakeConn{})

	rm, _ := r.GetRoom("r1")
	members := rm.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "u1", members[0].Id)
	assert.Equal(t, "u2", members[1].Id)
	assert.Equal(t, "u3", members[2].Id)
	assert.True(t, members[0].IsHost)
	assert.False(t, members[1].IsHost)
}
