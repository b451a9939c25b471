package stream

import (
	"os/exec"
	"time"
)

// Session is one live restreaming process tied to one destination channel.
// Everything except the log buffer is fixed at spawn time; changing the
// source file or loop flag means stopping the session and starting a new one.
type Session struct {
	StreamKey  string
	SourceFile string
	SourcePath string
	Title      string
	Channel    string
	Emoji      string
	Loop       bool
	StartedAt  time.Time

	cmd  *exec.Cmd
	logs *LogBuffer
}

// Logs exposes the session's log buffer.
func (s *Session) Logs() *LogBuffer {
	return s.logs
}

// StartRequest carries the fields of a POST /stream/start body.
type StartRequest struct {
	FileName       string `json:"fileName"`
	StreamKey      string `json:"streamKey"`
	Title          string `json:"title"`
	Channel        string `json:"channel"`
	Emoji          string `json:"emoji"`
	Loop           bool   `json:"loop"`
	DestinationURL string `json:"destinationUrl"`
}

// Status is the read-only projection of a session returned by
// GET /stream/status. IsStreaming is always true for a listed session; the
// field exists because polling clients treat a vanished key as "ended".
type Status struct {
	StreamKey   string    `json:"streamKey"`
	FileName    string    `json:"fileName"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	Emoji       string    `json:"emoji"`
	StartTime   time.Time `json:"startTime"`
	Loop        bool      `json:"loop"`
	IsStreaming bool      `json:"isStreaming"`
}

func (s *Session) status() Status {
	return Status{
		StreamKey:   s.StreamKey,
		FileName:    s.SourceFile,
		Title:       s.Title,
		Channel:     s.Channel,
		Emoji:       s.Emoji,
		StartTime:   s.StartedAt,
		Loop:        s.Loop,
		IsStreaming: true,
	}
}
