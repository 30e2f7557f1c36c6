package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"scam-honeypot/internal/domain"
)

const (
	NoticeNotScam      = "Message does not appear to be a scam. No engagement necessary."
	NoticeLimitReached = "Conversation has reached its limit."
)

type StateStore interface {
	Resolve(id string) *domain.ConversationState
	IsLive(id string) bool
	SetScamCategory(id, category string)
	RecordMessage(id string, msg domain.Message)
	MergeIntelligence(id string, intel domain.Intelligence)
	MarkDone(id string)
	ElapsedSeconds(id string) int
	Snapshot(id string) (*domain.ConversationState, bool)
	Count() int
	MaxTurns() int
	Lock(id string) func()
}

type Classifier interface {
	Detect(ctx context.Context, message string, history []domain.Message) domain.DetectionResult
}

type Responder interface {
	Generate(ctx context.Context, message string, history []domain.Message, category string, turnCount int) string
}

type IntelExtractor interface {
	Extract(text string, existing domain.Intelligence) domain.Intelligence
	ExtractWithAI(ctx context.Context, text string, existing domain.Intelligence) domain.Intelligence
}

type Archiver interface {
	Archive(ctx context.Context, state *domain.ConversationState) error
}

// Engine runs the per-message turn sequence against the conversation store.
type Engine struct {
	store        StateStore
	classifier   Classifier
	responder    Responder
	extractor    IntelExtractor
	archive      Archiver
	aiExtraction bool

	now       func() time.Time
	startedAt time.Time
}

type EngineOption func(*Engine)

// WithArchive records completed conversations through a.
func WithArchive(a Archiver) EngineOption {
	return func(e *Engine) {
		e.archive = a
	}
}

// WithAIExtraction makes intelligence extraction consult the model as well as
// the patterns.
func WithAIExtraction(enabled bool) EngineOption {
	return func(e *Engine) {
		e.aiExtraction = enabled
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

type MessageInput struct {
	ConversationID string
	Message        string
	Timestamp      string
}

// ConversationView is the read-only projection of one conversation.
type ConversationView struct {
	ConversationID        string              `json:"conversation_id"`
	TurnCount             int                 `json:"turn_count"`
	IsActive              bool                `json:"is_active"`
	ScamType              string              `json:"scam_type"`
	DurationSeconds       int                 `json:"duration_seconds"`
	ExtractedIntelligence domain.Intelligence `json:"extracted_intelligence"`
	HistoryLength         int                 `json:"history_length"`
}

type Stats struct {
	ActiveConversations int    `json:"active_conversations"`
	UptimeSeconds       int    `json:"uptime_seconds"`
	Timestamp           string `json:"timestamp"`
}

func NewEngine(store StateStore, classifier Classifier, responder Responder, extractor IntelExtractor, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, errors.New("usecase: state store must not be nil")
	}
	if classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if responder == nil {
		return nil, errors.New("usecase: responder must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("usecase: extractor must not be nil")
	}
	e := &Engine{
		store:      store,
		classifier: classifier,
		responder:  responder,
		extractor:  extractor,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.startedAt = e.now()
	return e, nil
}

// HandleMessage processes one scammer message and returns the response
// envelope. Messages for the same conversation are handled one at a time.
func (e *Engine) HandleMessage(ctx context.Context, in MessageInput) (env domain.Envelope, err error) {
	id := strings.TrimSpace(in.ConversationID)
	if id == "" {
		return domain.Envelope{}, newError(ErrorInvalidInput, "empty_conversation_id", nil)
	}
	if strings.TrimSpace(in.Message) == "" {
		return domain.Envelope{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	started := e.now()
	unlock := e.store.Lock(id)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("message processing panicked", "conversation_id", id, "panic", r)
			env = domain.Envelope{}
			err = newError(ErrorInternal, "processing_panic", fmt.Errorf("%v", r))
		}
	}()

	slog.Info("Processing message", "conversation_id", id, "message_length", len(in.Message))

	state := e.store.Resolve(id)
	live := e.store.IsLive(id)

	verdict := e.classifier.Detect(ctx, in.Message, state.History)
	if verdict.Category != "" && verdict.Category != domain.DefaultScamCategory {
		e.store.SetScamCategory(id, verdict.Category)
	}

	e.store.RecordMessage(id, domain.Message{
		Role:      domain.RoleScammer,
		Content:   in.Message,
		Timestamp: in.Timestamp,
	})

	intel := e.extract(ctx, in.Message, state.Intelligence)
	e.store.MergeIntelligence(id, intel)

	current, ok := e.store.Snapshot(id)
	if !ok {
		return domain.Envelope{}, newError(ErrorInternal, "state_missing", fmt.Errorf("conversation %s vanished mid-turn", id))
	}

	var reply string
	switch {
	case live && verdict.IsScam:
		reply = e.responder.Generate(ctx, in.Message, state.History, current.ScamCategory, state.TurnCount)
		e.store.RecordMessage(id, domain.Message{
			Role:      domain.RoleAgent,
			Content:   reply,
			Timestamp: e.now().UTC().Format(time.RFC3339),
		})
	case !verdict.IsScam:
		reply = NoticeNotScam
	default:
		reply = NoticeLimitReached
		e.store.MarkDone(id)
		e.archiveConversation(ctx, id)
	}

	env = domain.Envelope{
		ScamDetected:    verdict.IsScam,
		ConfidenceScore: math.Round(verdict.Confidence*100) / 100,
		AgentResponse:   reply,
		EngagementMetrics: domain.EngagementMetrics{
			TurnNumber:                current.TurnCount,
			EngagementDurationSeconds: e.store.ElapsedSeconds(id),
			ConversationState:         e.conversationState(live, current.TurnCount),
		},
		ExtractedIntelligence: intel,
	}

	slog.Info("Message processed",
		"conversation_id", id,
		"processing_ms", e.now().Sub(started).Milliseconds(),
		"scam_detected", verdict.IsScam,
		"scam_type", current.ScamCategory,
		"turn", current.TurnCount,
	)
	return env, nil
}

func (e *Engine) extract(ctx context.Context, text string, existing domain.Intelligence) domain.Intelligence {
	if e.aiExtraction {
		return e.extractor.ExtractWithAI(ctx, text, existing)
	}
	return e.extractor.Extract(text, existing)
}

func (e *Engine) conversationState(live bool, turns int) string {
	switch {
	case !live:
		return domain.StateTimeout
	case turns >= e.store.MaxTurns():
		return domain.StateCompleted
	default:
		return domain.StateActive
	}
}

func (e *Engine) archiveConversation(ctx context.Context, id string) {
	if e.archive == nil {
		return
	}
	st, ok := e.store.Snapshot(id)
	if !ok {
		return
	}
	if err := e.archive.Archive(ctx, st); err != nil {
		slog.Error("failed to archive conversation", "conversation_id", id, "err", err)
	}
}

// Conversation returns the projection for id without creating a record.
func (e *Engine) Conversation(id string) (ConversationView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ConversationView{}, newError(ErrorInvalidInput, "empty_conversation_id", nil)
	}
	st, ok := e.store.Snapshot(id)
	if !ok {
		return ConversationView{}, newError(ErrorNotFound, "conversation_not_found", nil)
	}
	return ConversationView{
		ConversationID:        st.ID,
		TurnCount:             st.TurnCount,
		IsActive:              st.Active,
		ScamType:              st.ScamCategory,
		DurationSeconds:       e.store.ElapsedSeconds(id),
		ExtractedIntelligence: st.Intelligence,
		HistoryLength:         len(st.History),
	}, nil
}

func (e *Engine) Stats() Stats {
	now := e.now()
	return Stats{
		ActiveConversations: e.store.Count(),
		UptimeSeconds:       int(now.Sub(e.startedAt) / time.Second),
		Timestamp:           now.UTC().Format(time.RFC3339),
	}
}
