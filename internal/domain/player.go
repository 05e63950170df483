package domain

import "time"

type Player struct {
	Provider    Provider  `json:"provider"`
	Locator     string    `json:"locator"`
	IsPlaying   bool      `json:"is_playing"`
	CurrentTime float64   `json:"current_time"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewPlayer() Player {
	return Player{
		IsPlaying:   false,
		CurrentTime: 0,
		UpdatedAt:   time.Now().UTC(),
	}
}
