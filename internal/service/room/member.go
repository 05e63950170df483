package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/room"
)

type JoinRoomParams struct {
	RoomId       string
	MemberId     string
	SessionToken string
	Username     string
	Conn         room.Conn
}

type JoinRoomResponse struct {
	MemberId     string
	SessionToken string
	IsHost       bool
	RoomCreated  bool
	Reconnected  bool
	Members      []domain.Member
	Player       domain.Player
	Videos       []domain.QueueItem
	CurrentIndex int
	AutoAdvance  bool
}

// JoinRoom admits the connection and announces the member to the rest of
// the room. An empty member id gets a fresh one; an empty session token
// gets a signed one.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	memberId := params.MemberId
	if memberId == "" {
		memberId = uuid.NewString()
	}

	sessionToken := params.SessionToken
	if sessionToken == "" {
		var err error
		sessionToken, err = s.generateSessionToken(memberId, params.RoomId)
		if err != nil {
			s.logger.InfoContext(ctx, "failed to generate session token", "error", err)
			return JoinRoomResponse{}, fmt.Errorf("failed to generate session token: %w", err)
		}
	}

	admitResp, err := s.registry.Admit(ctx, &room.AdmitParams{
		RoomId:       params.RoomId,
		MemberId:     memberId,
		SessionToken: sessionToken,
		Username:     params.Username,
		Conn:         params.Conn,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to admit member", "error", err)
		return JoinRoomResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	if err := s.metaRepo.TouchRoomByRoomId(ctx, params.RoomId); err != nil {
		s.logger.DebugContext(ctx, "failed to touch room metadata", "error", err)
	}

	members := rm.Members()
	videos, currentIndex, autoAdvance := rm.Queue().Snapshot()

	if !admitResp.Reconnected {
		joined := domain.Member{
			Id:       admitResp.MemberId,
			Username: params.Username,
			IsHost:   admitResp.IsHost,
		}
		if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
			Type: domain.MsgMemberJoined,
			Payload: domain.MemberJoinedPayload{
				JoinedMember: joined,
				Members:      members,
			},
		}, admitResp.MemberId); err != nil {
			s.logger.InfoContext(ctx, "failed to broadcast member joined", "error", err)
		}
	}

	return JoinRoomResponse{
		MemberId:     admitResp.MemberId,
		SessionToken: sessionToken,
		IsHost:       admitResp.IsHost,
		RoomCreated:  admitResp.RoomCreated,
		Reconnected:  admitResp.Reconnected,
		Members:      members,
		Player:       rm.Player(),
		Videos:       videos,
		CurrentIndex: currentIndex,
		AutoAdvance:  autoAdvance,
	}, nil
}

type LeaveRoomParams struct {
	RoomId   string
	MemberId string
	Conn     room.Conn
}

type LeaveRoomResponse struct {
	Removed     bool
	RoomDeleted bool
	NewHostId   string
	HostChanged bool
}

// LeaveRoom retires the member, re-elects a host if the host left, and
// announces both to the survivors. Retiring the last member destroys the
// room; the registry's eviction callback takes care of the metadata.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	retireResp := s.registry.Retire(ctx, params.RoomId, params.MemberId, params.Conn)
	if !retireResp.Removed {
		return LeaveRoomResponse{}, nil
	}

	if retireResp.RoomDeleted {
		return LeaveRoomResponse{
			Removed:     true,
			RoomDeleted: true,
		}, nil
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	newHostId, hostChanged := s.registry.ReassignHostIfNeeded(params.RoomId)

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgMemberLeft,
		Payload: domain.MemberLeftPayload{
			LeftMemberId: params.MemberId,
			Members:      rm.Members(),
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast member left", "error", err)
	}

	if hostChanged {
		if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
			Type: domain.MsgHostChanged,
			Payload: domain.HostChangedPayload{
				HostId: newHostId,
			},
		}, ""); err != nil {
			s.logger.InfoContext(ctx, "failed to broadcast host changed", "error", err)
		}
	}

	return LeaveRoomResponse{
		Removed:     true,
		NewHostId:   newHostId,
		HostChanged: hostChanged,
	}, nil
}

// SessionMatches exposes the registry's token check to front doors that
// authorize privileged requests before calling in.
func (s service) SessionMatches(roomId, memberId, sessionToken string) bool {
	return s.registry.SessionMatches(roomId, memberId, sessionToken)
}
