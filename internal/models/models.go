// Package models defines the shared data types for the Reframing Retirement coach:
// conversation state, layer inference, routing decisions, response modes, and the
// request/response shapes exposed by the HTTP API.
package models

import "time"

// Layer identifies a behavior-change readiness stage inferred from language cues.
type Layer string

// Layer values. LayerNone is the zero value and means no layer matched this turn.
const (
	LayerNone                 Layer = ""
	LayerUnclassified         Layer = "unclassified"
	LayerInitiatingReflective Layer = "initiating_reflective"
	LayerOngoingReflective    Layer = "ongoing_reflective"
	LayerRegulatory           Layer = "regulatory"
	LayerReflexive            Layer = "reflexive"
)

// SignalSet holds the boolean cues extracted from a single user turn.
// It is built fresh per turn and never mutated afterwards.
type SignalSet struct {
	HasFrequency            bool `json:"has_frequency"`
	HasTimeframe            bool `json:"has_timeframe"`
	HasRoutineLanguage      bool `json:"has_routine"`
	HasPlanningLanguage     bool `json:"has_planning"`
	HasNotStartedLanguage   bool `json:"has_not_started"`
	HasAffectiveLanguage    bool `json:"has_affective"`
	HasOpportunityLanguage  bool `json:"has_opportunity"`
	HasProgressiveStatement bool `json:"has_progressive"`
}

// BehaviorEvidence reports whether the turn contains any evidence of actual
// behavior (as opposed to intentions or feelings about behavior).
func (s SignalSet) BehaviorEvidence() bool {
	return s.HasFrequency || s.HasTimeframe || s.HasRoutineLanguage || s.HasProgressiveStatement
}

// LayerInference is the per-turn output of the layer classifier. It is never
// persisted beyond the turn that produced it; only its effect on
// ConversationState survives.
type LayerInference struct {
	Layer      Layer
	Confidence float64
	Signals    SignalSet
}

// ConversationState tracks inferred user context across a conversation. It is
// owned by exactly one conversation and mutated only by the state-update
// reducer; callers must serialize per-conversation access.
type ConversationState struct {
	ProcessLayer    Layer   `json:"process_layer"`
	LayerConfidence float64 `json:"layer_confidence"`
	// PendingQuestion is the clarifying question to surface next, empty when none.
	PendingQuestion string `json:"pending_layer_question,omitempty"`
	Barrier         string `json:"barrier"`
	Activities      string `json:"activities"`
	TimeAvailable   string `json:"time_available"`
}

// ValueUnknown is the sentinel for context fields the conversation has not
// established yet.
const ValueUnknown = "unknown"

// NewConversationState returns the initial state for a fresh conversation.
func NewConversationState() ConversationState {
	return ConversationState{
		ProcessLayer:  LayerUnclassified,
		Barrier:       ValueUnknown,
		Activities:    ValueUnknown,
		TimeAvailable: ValueUnknown,
	}
}

// ActivityFilters captures structured filters extracted from a user turn for
// the activities index. A nil *ActivityFilters means "no filters".
type ActivityFilters struct {
	CostLabel    string   `json:"cost_label,omitempty"`
	Days         []string `json:"days,omitempty"`
	Location     string   `json:"location,omitempty"`
	ActivityType string   `json:"activity_type,omitempty"`
}

// HasFilters reports whether at least one filter field is set.
func (f *ActivityFilters) HasFilters() bool {
	if f == nil {
		return false
	}
	return f.CostLabel != "" || len(f.Days) > 0 || f.Location != "" || f.ActivityType != ""
}

// RouteDecision says which knowledge sources to query for a turn. Produced
// fresh per turn by the query router; never persisted.
type RouteDecision struct {
	UseMaster                  bool
	UseActivities              bool
	ActivityFilters            *ActivityFilters
	NeedsLocationClarification bool
}

// ResponseMode selects the reply strategy for a turn.
type ResponseMode string

// Response modes in precedence order (highest first, default last).
const (
	ResponseModeLowestIntent     ResponseMode = "lowest_intent"
	ResponseModeEmotionEducation ResponseMode = "emotion_education"
	ResponseModeEducational      ResponseMode = "educational"
	ResponseModeSourceRequest    ResponseMode = "source_request"
	ResponseModeDefault          ResponseMode = "default"
)

// Message is one entry in a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PreparedTurn bundles every decision the orchestrator makes for one turn:
// the prompt payload for the completion call, the selected response mode, the
// citation policy, and an optional pre-built reply that replaces the
// completion call entirely.
type PreparedTurn struct {
	Messages       []Message
	ResponseMode   ResponseMode
	NeedsCitations bool
	// OverrideText, when OverrideCitations is true, is the full reply; no
	// completion call is made.
	OverrideCitations bool
	OverrideText      string
	// ReferenceBlockReferences is the citation pool appended after generation
	// when NeedsCitations is set.
	ReferenceBlockReferences []string
	// ModuleReferenceSentence is appended verbatim after post-processing for
	// non-default modes that cite course material.
	ModuleReferenceSentence string
}

// ConversationSnapshot is the persisted form of one conversation: its inferred
// state plus the transcript, written through the store after finalized turns.
type ConversationSnapshot struct {
	SessionID    string            `json:"session_id"`
	State        ConversationState `json:"state"`
	History      []Message         `json:"history"`
	MessageCount int               `json:"message_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
