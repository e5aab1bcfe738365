package chat

import (
	"context"
	"time"

	"github.com/i474232898/farm-advisor/internal/gemini"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in a conversation. Timestamp is epoch milliseconds.
type Turn struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// NewTurn stamps a turn with t.
func NewTurn(role Role, text string, t time.Time) Turn {
	return Turn{Role: role, Text: text, Timestamp: t.UnixMilli()}
}

// Coordinates is an optional request location in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Store holds conversation history keyed by session id.
type Store interface {
	Get(sessionID string) []Turn
	Append(sessionID string, turns ...Turn) int
	Clear(sessionID string)
	Truncate(sessionID string, maxTurns int)
}

// WeatherSource turns a location into a short weather summary. ok is false
// when no summary is available.
type WeatherSource interface {
	Summarize(ctx context.Context, lat, lon float64) (summary string, ok bool)
}

// Generator produces model replies.
type Generator interface {
	GenerateContent(ctx context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}
