package domain

import "time"

// Provider names the origin of a playable source. The core treats the
// locator as opaque; front ends decide how to resolve it.
type Provider string

const (
	ProviderUpload  Provider = "upload"
	ProviderURL     Provider = "url"
	ProviderYouTube Provider = "youtube"
)

type ScheduleKind string

const (
	ScheduleNone          ScheduleKind = "none"
	ScheduleAbsolute      ScheduleKind = "absolute"
	ScheduleRelativeTime  ScheduleKind = "relative_time"
	ScheduleRelativeCount ScheduleKind = "relative_count"
)

// QueueItem is one entry of a room's playlist. Position is reassigned by
// queue mutations; everything else is immutable after creation.
type QueueItem struct {
	Id              string       `json:"id"`
	Provider        Provider     `json:"provider"`
	Locator         string       `json:"locator"`
	Title           string       `json:"title,omitempty"`
	Position        int          `json:"position"`
	DueAt           *time.Time   `json:"due_at,omitempty"`
	ScheduleKind    ScheduleKind `json:"schedule_kind"`
	RelativeMinutes int          `json:"relative_minutes,omitempty"`
	RelativeCount   int          `json:"relative_count,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	AddedById       string       `json:"added_by_id"`
}

// ScheduledVideo is a room-level one-shot: play a specific source at a
// clock time, independent of the queue's position model.
type ScheduledVideo struct {
	Id        string    `json:"id"`
	Provider  Provider  `json:"provider"`
	Locator   string    `json:"locator"`
	Title     string    `json:"title,omitempty"`
	DueAt     time.Time `json:"due_at"`
	AddedById string    `json:"added_by_id"`
	Cancelled bool      `json:"cancelled"`
	Played    bool      `json:"played"`
}
