package room

import (
	"sort"
	"sync"
	"time"

	"github.com/watchroom/server/internal/domain"
)

// Conn is the live-connection handle the core delivers messages through.
// The websocket front door adapts its connections to this; tests supply
// fakes.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// member folds the connection handle, display name and session token of one
// participant into a single record so the room mutex guards them as a unit
// and no reader can observe the tables out of step.
type member struct {
	conn         Conn
	username     string
	sessionToken string
	admitSeq     uint64
}

// Room aggregates the live state of one playback session: the member table,
// the host, the playback snapshot, the queue and the one-shot scheduled
// videos. Queue state has its own mutex; everything else lives under the
// room mutex.
type Room struct {
	Id string

	mu        sync.RWMutex
	hostId    string
	members   map[string]*member
	admitSeq  uint64
	player    domain.Player
	scheduled []domain.ScheduledVideo

	queue *VideoQueue
}

func NewRoom(roomId string) *Room {
	return &Room{
		Id:      roomId,
		members: make(map[string]*member),
		player:  domain.NewPlayer(),
		queue:   NewVideoQueue(),
	}
}

func (r *Room) Queue() *VideoQueue {
	return r.queue
}

func (r *Room) HostId() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hostId
}

func (r *Room) IsHost(memberId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hostId == memberId
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members)
}

// Members returns the roster ordered by admission.
func (r *Room) Members() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		id  string
		m   *member
		seq uint64
	}
	entries := make([]entry, 0, len(r.members))
	for id, m := range r.members {
		entries = append(entries, entry{id: id, m: m, seq: m.admitSeq})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	members := make([]domain.Member, 0, len(entries))
	for _, e := range entries {
		members = append(members, domain.Member{
			Id:       e.id,
			Username: e.m.username,
			IsHost:   e.id == r.hostId,
		})
	}

	return members
}

func (r *Room) Player() domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.player
}

func (r *Room) SetPlayer(player domain.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.player = player
}

type UpdatePlayerStateParams struct {
	IsPlaying   bool
	CurrentTime float64
}

// UpdatePlayerState mutates the transport flags of the player without
// touching the current media locator.
func (r *Room) UpdatePlayerState(params *UpdatePlayerStateParams) domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.player.IsPlaying = params.IsPlaying
	r.player.CurrentTime = params.CurrentTime
	r.player.UpdatedAt = time.Now().UTC()

	return r.player
}

func (r *Room) AddScheduledVideo(sv domain.ScheduledVideo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scheduled = append(r.scheduled, sv)
}

func (r *Room) CancelScheduledVideo(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.scheduled {
		if r.scheduled[i].Id == id && !r.scheduled[i].Cancelled && !r.scheduled[i].Played {
			r.scheduled[i].Cancelled = true
			return true
		}
	}

	return false
}

func (r *Room) MarkScheduledVideoPlayed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.scheduled {
		if r.scheduled[i].Id == id && !r.scheduled[i].Cancelled && !r.scheduled[i].Played {
			r.scheduled[i].Played = true
			return true
		}
	}

	return false
}

// NextScheduledVideo returns the earliest pending one-shot.
func (r *Room) NextScheduledVideo() (domain.ScheduledVideo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next domain.ScheduledVideo
	found := false
	for _, sv := range r.scheduled {
		if sv.Cancelled || sv.Played {
			continue
		}
		if !found || sv.DueAt.Before(next.DueAt) {
			next = sv
			found = true
		}
	}

	return next, found
}

// DueScheduledVideos returns pending one-shots whose clock time has passed,
// ordered by due time ascending.
func (r *Room) DueScheduledVideos(now time.Time) []domain.ScheduledVideo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]domain.ScheduledVideo, 0)
	for _, sv := range r.scheduled {
		if sv.Cancelled || sv.Played {
			continue
		}
		if !sv.DueAt.After(now) {
			due = append(due, sv)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})

	return due
}
