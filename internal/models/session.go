package models

// TimeLayout is the local timestamp format exchanged with the UI and the
// submission sink ("YYYY-MM-DDTHH:mm:ss", no zone).
const TimeLayout = "2006-01-02T15:04:05"

// Playback rate bounds. Out-of-range input resets the rate to DefaultPlaybackRate.
const (
	MinPlaybackRate     = 0.1
	MaxPlaybackRate     = 5.0
	DefaultPlaybackRate = 1.0
)

// SessionState is a snapshot of the video session for the UI layer.
// Pointer fields are null until first set; RealTime is null unless both a
// base time and a playback offset are known.
type SessionState struct {
	AssetID        *string  `json:"asset_id"`
	BaseTime       *string  `json:"base_time"`
	PlaybackOffset *float64 `json:"playback_offset"`
	Frozen         bool     `json:"frozen"`
	StreamURL      string   `json:"stream_url,omitempty"`
	PlaybackRate   float64  `json:"playback_rate"`
	HorizontalFlip bool     `json:"horizontal_flip"`
	VerticalFlip   bool     `json:"vertical_flip"`
	RealTime       *string  `json:"real_time"`
}

// RecorderState is a snapshot of the event encoder for the UI layer.
// EventID is -1 while no event is selected.
type RecorderState struct {
	EventID int           `json:"event_id"`
	Answers []GroupAnswer `json:"answers"`
}
