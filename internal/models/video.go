package models

import "time"

// Video is one playable asset discovered in the data directory. Begin/end
// times come from the clip filename; a clip that does not follow the naming
// convention keeps zero times and type "Unknown".
type Video struct {
	FileName  string    `json:"file_name"`
	Path      string    `json:"path"`
	BeginTime time.Time `json:"begin_time"`
	EndTime   time.Time `json:"end_time"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
