package domain

// Output is the envelope for every message the server pushes to a live
// connection. Multiple independent front ends construct and consume these,
// so field names must stay stable.
type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	MsgQueueUpdated            = "QUEUE_UPDATED"
	MsgQueueAdvance            = "QUEUE_ADVANCE"
	MsgQueueExhausted          = "QUEUE_EXHAUSTED"
	MsgVideoChanged            = "VIDEO_CHANGED"
	MsgHostChanged             = "HOST_CHANGED"
	MsgMemberJoined            = "MEMBER_JOINED"
	MsgMemberLeft              = "MEMBER_LEFT"
	MsgScheduledVideoAdded     = "SCHEDULED_VIDEO_ADDED"
	MsgScheduledVideoCancelled = "SCHEDULED_VIDEO_CANCELLED"
)

type QueueUpdatedPayload struct {
	Videos       []QueueItem `json:"videos"`
	CurrentIndex int         `json:"current_index"`
	AutoAdvance  bool        `json:"auto_advance"`
}

type QueueAdvancePayload struct {
	CurrentVideo QueueItem   `json:"current_video"`
	Videos       []QueueItem `json:"videos"`
	CurrentIndex int         `json:"current_index"`
	Player       Player      `json:"player"`
}

type QueueExhaustedPayload struct {
	Videos       []QueueItem `json:"videos"`
	CurrentIndex int         `json:"current_index"`
}

type VideoChangedPayload struct {
	Player Player `json:"player"`
}

type HostChangedPayload struct {
	HostId string `json:"host_id"`
}

type MemberJoinedPayload struct {
	JoinedMember Member   `json:"joined_member"`
	Members      []Member `json:"members"`
}

type MemberLeftPayload struct {
	LeftMemberId string   `json:"left_member_id"`
	Members      []Member `json:"members"`
}

type ScheduledVideoAddedPayload struct {
	ScheduledVideo ScheduledVideo `json:"scheduled_video"`
}

type ScheduledVideoCancelledPayload struct {
	ScheduledVideoId string `json:"scheduled_video_id"`
}
