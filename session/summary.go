package session

import (
	"time"
)

// Summary is the end-of-session record handed over to persistence
type Summary struct {
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	StartedAt    time.Time `json:"started_at"`
	VideoFile    string    `json:"video_file"`
	OutputVideo  string    `json:"output_video"`
	Frames       int       `json:"frames"`
	TotalEntries int       `json:"total_entries"`
	TotalExits   int       `json:"total_exits"`
	NetCount     int       `json:"net_count"`
}

// Summary builds record of the session finished at given time
func (s *Session) Summary(finishedAt time.Time, videoFile, outputVideo string) Summary {
	tally := s.counter.Tally()
	return Summary{
		SessionID:    s.id.String(),
		Timestamp:    finishedAt,
		StartedAt:    s.startedAt,
		VideoFile:    videoFile,
		OutputVideo:  outputVideo,
		Frames:       s.frames,
		TotalEntries: tally.Entries,
		TotalExits:   tally.Exits,
		NetCount:     tally.Net(),
	}
}
