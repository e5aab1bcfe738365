// Package chat implements the farming assistant conversation flow.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/farm-advisor/internal/gemini"
)

// DefaultHistoryLimit is the number of stored turns kept before a prompt is built.
const DefaultHistoryLimit = 20

var (
	// ErrInvalidRequest means the caller sent no question.
	ErrInvalidRequest = errors.New("question is required")
	// ErrMisconfigured means no generative-AI credential is configured.
	ErrMisconfigured = errors.New("generative AI credential is not configured")
)

// UpstreamError wraps a failed generative-AI call. StatusCode is zero when
// the call failed before a status was received.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generative API failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generative API failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AskInput is one chat request.
type AskInput struct {
	Question     string
	SessionID    string
	ClearHistory bool
	Location     *Coordinates
}

// AskResult is returned to the client after a successful exchange.
type AskResult struct {
	Reply              string `json:"reply"`
	SessionID          string `json:"sessionId"`
	ConversationLength int    `json:"conversationLength"`
}

// Options tunes a Service. Zero values take defaults.
type Options struct {
	HistoryLimit int
	Prompt       PromptConfig
	Now          func() time.Time
}

// Service orchestrates the session store, weather lookups and the model.
type Service struct {
	store        Store
	weather      WeatherSource
	generator    Generator
	historyLimit int
	prompt       PromptConfig
	now          func() time.Time
}

// NewService creates a Service. weather may be nil. A nil generator makes
// Ask fail with ErrMisconfigured.
func NewService(store Store, weather WeatherSource, generator Generator, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Prompt == (PromptConfig{}) {
		opts.Prompt = DefaultPromptConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:        store,
		weather:      weather,
		generator:    generator,
		historyLimit: opts.HistoryLimit,
		prompt:       opts.Prompt,
		now:          opts.Now,
	}
}

// Ask runs one question through the model and records the exchange.
func (s *Service) Ask(ctx context.Context, in AskInput) (AskResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return AskResult{}, ErrInvalidRequest
	}

	if s.generator == nil {
		logrus.Error("chat: GEMINI_API_KEY is not set; rejecting chat request")
		return AskResult{}, ErrMisconfigured
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := logrus.WithField("session_id", sessionID)

	if in.ClearHistory {
		s.store.Clear(sessionID)
		log.Debug("chat: history cleared on request")
	}

	// Persisted even if the model call below fails.
	s.store.Truncate(sessionID, s.historyLimit)
	history := s.store.Get(sessionID)

	var weatherSummary string
	if in.Location != nil && s.weather != nil {
		if summary, ok := s.weather.Summarize(ctx, in.Location.Lat, in.Location.Lon); ok {
			weatherSummary = summary
		} else {
			log.Debug("chat: no weather context available")
		}
	}

	req := BuildPrompt(s.prompt, history, question, weatherSummary)

	resp, err := s.generator.GenerateContent(ctx, req)
	if err != nil {
		upstream := &UpstreamError{Err: err}
		var se *gemini.StatusError
		if errors.As(err, &se) {
			upstream.StatusCode = se.StatusCode
			log.WithField("body", se.Body).Errorf("chat: generative API returned %d", se.StatusCode)
		} else {
			log.WithError(err).Error("chat: generative API call failed")
		}
		return AskResult{}, upstream
	}

	reply := StripAnnotation(gemini.ExtractReply(resp))
	if reply == "" {
		reply = gemini.DefaultReply
	}

	now := s.now()
	length := s.store.Append(sessionID,
		NewTurn(RoleUser, question, now),
		NewTurn(RoleModel, reply, now),
	)

	log.WithField("length", length).Info("chat: exchange recorded")
	return AskResult{
		Reply:              reply,
		SessionID:          sessionID,
		ConversationLength: length,
	}, nil
}

// ClearHistory drops a session. Clearing an unknown session is not an error.
func (s *Service) ClearHistory(sessionID string) {
	s.store.Clear(sessionID)
}

// History returns the stored turns for a session and their count.
func (s *Service) History(sessionID string) ([]Turn, int) {
	turns := s.store.Get(sessionID)
	return turns, len(turns)
}
