package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/watchroom/server/internal/domain"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMembersLimitReached = errors.New("members limit reached")
)

const syntheticIdPrefix = "guest-"

type iGenerator interface {
	GenerateRandomString(length int) string
}

// EvictFunc is invoked after a room has been removed from the registry
// because its last connection retired. It runs outside all registry locks.
type EvictFunc func(roomId string)

type RegistryConfig struct {
	MembersLimit int
	OnEvict      EvictFunc
}

// Registry owns the lifetime of every Room in the process. Rooms are
// created on first admission and destroyed the moment their member table
// empties. Lock order is registry before room, always.
type Registry struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	generator    iGenerator
	logger       *slog.Logger
	membersLimit int
	onEvict      EvictFunc
}

func NewRegistry(generator iGenerator, cfg *RegistryConfig, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		generator:    generator,
		logger:       logger,
		membersLimit: cfg.MembersLimit,
		onEvict:      cfg.OnEvict,
	}
}

func (r *Registry) GetRoom(roomId string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]

	return rm, ok
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}

	return rooms
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

type AdmitParams struct {
	RoomId       string
	MemberId     string
	SessionToken string
	Username     string
	Conn         Conn
}

type AdmitResponse struct {
	MemberId    string
	IsHost      bool
	RoomCreated bool
	Reconnected bool
}

// Admit attaches a live connection to a room, creating the room with the
// caller as host if it does not exist. A claimed id that is already
// connected is treated as a reconnect when the session token matches (the
// stale connection is closed and replaced under the same id) and as a
// distinct client otherwise, which is admitted under a fresh synthetic id
// rather than rejected.
func (r *Registry) Admit(ctx context.Context, params *AdmitParams) (AdmitResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		rm = NewRoom(params.RoomId)
		r.rooms[params.RoomId] = rm
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	memberId := params.MemberId
	reconnected := false

	if existing, connected := rm.members[memberId]; connected {
		if existing.sessionToken == params.SessionToken {
			// Same logical user reconnecting, e.g. a page reload.
			existing.conn.Close()
			existing.conn = params.Conn
			existing.username = params.Username
			reconnected = true
		} else {
			// A different physical client reusing the claimed id. Admit it
			// under a synthetic identity instead of erroring.
			for {
				memberId = syntheticIdPrefix + r.generator.GenerateRandomString(8)
				if _, taken := rm.members[memberId]; !taken {
					break
				}
			}
		}
	}

	if !reconnected {
		if r.membersLimit > 0 && len(rm.members) >= r.membersLimit {
			if !ok {
				delete(r.rooms, params.RoomId)
			}
			return AdmitResponse{}, ErrMembersLimitReached
		}

		rm.admitSeq++
		rm.members[memberId] = &member{
			conn:         params.Conn,
			username:     params.Username,
			sessionToken: params.SessionToken,
			admitSeq:     rm.admitSeq,
		}
	}

	if !ok {
		rm.hostId = memberId
	}

	r.logger.DebugContext(ctx, "member admitted",
		"room_id", params.RoomId,
		"member_id", memberId,
		"reconnected", reconnected,
		"room_created", !ok,
	)

	return AdmitResponse{
		MemberId:    memberId,
		IsHost:      rm.hostId == memberId,
		RoomCreated: !ok,
		Reconnected: reconnected,
	}, nil
}

// SessionMatches reports whether the token on file for the member equals
// the supplied one. Callers use it to authorize host-only operations.
func (r *Registry) SessionMatches(roomId, memberId, sessionToken string) bool {
	r.mu.RLock()
	rm, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	m, ok := rm.members[memberId]

	return ok && m.sessionToken == sessionToken
}

type RetireResponse struct {
	Removed     bool
	RoomDeleted bool
}

// Retire removes the member's record and closes its connection. When an
// expected connection handle is supplied, removal only proceeds if it is
// still the handle on file, so a stale retire cannot race a fresh admit for
// the same id. Retiring the last member destroys the room and fires the
// eviction callback.
func (r *Registry) Retire(ctx context.Context, roomId, memberId string, expected Conn) RetireResponse {
	r.mu.Lock()

	rm, ok := r.rooms[roomId]
	if !ok {
		r.mu.Unlock()
		return RetireResponse{}
	}

	rm.mu.Lock()

	m, ok := rm.members[memberId]
	if !ok || (expected != nil && m.conn != expected) {
		rm.mu.Unlock()
		r.mu.Unlock()
		return RetireResponse{}
	}

	delete(rm.members, memberId)
	m.conn.Close()

	roomDeleted := len(rm.members) == 0
	if roomDeleted {
		delete(r.rooms, roomId)
	}

	rm.mu.Unlock()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "member retired",
		"room_id", roomId,
		"member_id", memberId,
		"room_deleted", roomDeleted,
	)

	if roomDeleted && r.onEvict != nil {
		r.onEvict(roomId)
	}

	return RetireResponse{
		Removed:     true,
		RoomDeleted: roomDeleted,
	}
}

// ReassignHostIfNeeded elects a new host when the current one is no longer
// connected. The earliest-admitted surviving member wins, which keeps the
// outcome deterministic. Callers broadcast the change themselves.
func (r *Registry) ReassignHostIfNeeded(roomId string) (string, bool) {
	r.mu.RLock()
	rm, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, connected := rm.members[rm.hostId]; connected {
		return rm.hostId, false
	}

	newHostId := ""
	var minSeq uint64
	for id, m := range rm.members {
		if newHostId == "" || m.admitSeq < minSeq {
			newHostId = id
			minSeq = m.admitSeq
		}
	}
	if newHostId == "" {
		return "", false
	}

	rm.hostId = newHostId

	return newHostId, true
}

// Broadcast serializes the message once and delivers it concurrently to
// every live connection in the room except excludeMemberId. A failed send
// retires that member as a side effect. The call returns after every
// delivery attempt has completed; ordering across separate Broadcast calls
// is not guaranteed.
func (r *Registry) Broadcast(ctx context.Context, roomId string, msg *domain.Output, excludeMemberId string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.mu.RLock()
	rm, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	type recipient struct {
		memberId string
		conn     Conn
	}

	rm.mu.RLock()
	recipients := make([]recipient, 0, len(rm.members))
	for id, m := range rm.members {
		if id == excludeMemberId {
			continue
		}
		recipients = append(recipients, recipient{memberId: id, conn: m.conn})
	}
	rm.mu.RUnlock()

	var (
		failedMu sync.Mutex
		failed   []recipient
		wg       sync.WaitGroup
	)
	for _, rec := range recipients {
		wg.Add(1)
		go func(rec recipient) {
			defer wg.Done()
			if err := rec.conn.Send(data); err != nil {
				failedMu.Lock()
				failed = append(failed, rec)
				failedMu.Unlock()
			}
		}(rec)
	}
	wg.Wait()

	for _, rec := range failed {
		r.logger.InfoContext(ctx, "delivery failed, retiring member",
			"room_id", roomId,
			"member_id", rec.memberId,
		)
		r.Retire(ctx, roomId, rec.memberId, rec.conn)
	}

	return nil
}

// Unicast has the same delivery and failure semantics as Broadcast but for
// a single member.
func (r *Registry) Unicast(ctx context.Context, roomId, memberId string, msg *domain.Output) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.mu.RLock()
	rm, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	rm.mu.RLock()
	m, ok := rm.members[memberId]
	rm.mu.RUnlock()
	if !ok {
		return ErrMemberNotFound
	}

	if err := m.conn.Send(data); err != nil {
		r.logger.InfoContext(ctx, "delivery failed, retiring member",
			"room_id", roomId,
			"member_id", memberId,
		)
		r.Retire(ctx, roomId, memberId, m.conn)
		return err
	}

	return nil
}
