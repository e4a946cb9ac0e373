package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/classify"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/prompt"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/route"
)

// DefaultMaxHistoryMessages bounds how much transcript is replayed into the
// prompt.
const DefaultMaxHistoryMessages = 100

// retrievalInstruction frames the retrieved context block for the model.
const retrievalInstruction = "You have access to retrieved slides/activities below. When relevant, ground your answer in them. " +
	"Respond in a conversational tone using a maximum of three sentences total—no bullet lists or numbered lists. " +
	"If the retrieved context includes local activities, mention at least one concrete option by name (with location or schedule) before any reflective coaching. " +
	"If the content is not helpful, briefly say so before proceeding without it."

// locationClarificationInstruction is injected when the router wants
// activities but recognized no location.
const locationClarificationInstruction = "The user mentioned a location that wasn't recognized. Ask a single friendly question like " +
	"\"Do you live near or feel comfortable traveling to downtown, James Bay, Oak Bay, Saanich, Fairfield, or somewhere else nearby?\""

// referenceBlockHeader introduces appended citations.
const referenceBlockHeader = "From your modules, you can find more detail at:"

// noReferenceFallback is returned when the user asked for sources but nothing
// citable was retrieved.
const noReferenceFallback = "I couldn’t find a specific slide to cite. " +
	"If you can share more detail about what you’d like to know, I can point to a specific lesson. " +
	"In the meantime, feel free to elaborate and I’ll look for something relevant."

// lessonLookupFallback is returned when a which-lesson question matched no
// retrieved lesson.
const lessonLookupFallback = "I couldn’t find a lesson that covers that directly. " +
	"If you tell me a bit more about the topic, I can point you to the closest one."

// Completer is the text-generation dependency.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
	Stream(ctx context.Context, messages []models.Message, onToken func(string)) (string, error)
}

// ContextRetriever is the retrieval dependency. A nil retriever disables
// retrieval: no context block, no citations.
type ContextRetriever interface {
	GatherContext(ctx context.Context, query string, decision models.RouteDecision) (retrieval.Result, error)
}

// Config tunes an Agent.
type Config struct {
	// MaxHistoryMessages caps the replayed transcript; 0 selects the default.
	MaxHistoryMessages int
	// Selector tunes reference selection; the zero value uses defaults.
	Selector retrieval.SelectorConfig
}

// Agent owns one conversation: its state, transcript, and per-turn pipeline.
// Not safe for concurrent use; callers serialize access per conversation.
type Agent struct {
	completer Completer
	retriever ContextRetriever
	router    route.Router
	selector  *retrieval.Selector

	state      models.ConversationState
	history    []models.Message
	maxHistory int

	latestRetrieval          *retrieval.Result
	lastRetrievalWithResults *retrieval.Result
}

// NewAgent creates an Agent. retriever may be nil to run without retrieval.
func NewAgent(completer Completer, retriever ContextRetriever, cfg Config) *Agent {
	maxHistory := cfg.MaxHistoryMessages
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistoryMessages
	}
	return &Agent{
		completer:  completer,
		retriever:  retriever,
		selector:   retrieval.NewSelector(cfg.Selector),
		state:      models.NewConversationState(),
		maxHistory: maxHistory,
	}
}

// State returns a copy of the conversation state.
func (a *Agent) State() models.ConversationState {
	return a.state
}

// History returns a copy of the recorded transcript.
func (a *Agent) History() []models.Message {
	out := make([]models.Message, len(a.history))
	copy(out, a.history)
	return out
}

// Snapshot returns a flat string map of the conversation state for
// monitoring.
func (a *Agent) Snapshot() map[string]string {
	return map[string]string{
		"process_layer":          string(a.state.ProcessLayer),
		"layer_confidence":       fmt.Sprintf("%.2f", a.state.LayerConfidence),
		"pending_layer_question": a.state.PendingQuestion,
		"barrier":                a.state.Barrier,
		"activities":             a.state.Activities,
		"time_available":         a.state.TimeAvailable,
		"history_length":         strconv.Itoa(len(a.history)),
	}
}

// PrepareTurn runs the full per-turn pipeline short of the completion call:
// state update, routing, retrieval, intent detection, mode selection, prompt
// assembly, and citation policy. It has no side effects beyond mutating the
// conversation state; the transcript is only appended once a reply is
// finalized.
func (a *Agent) PrepareTurn(ctx context.Context, userInput string) (models.PreparedTurn, error) {
	inf := classify.InferProcessLayer(userInput)
	a.state = UpdateState(a.state, inf,
		classify.InferBarrier(userInput),
		classify.InferActivities(userInput),
		classify.InferTimeAvailable(userInput))

	decision := a.router.Route(userInput)
	detections := DetectAll(userInput, decision)
	mode, modeInstruction := SelectMode(detections)

	var contextBlock, routingInstruction string
	a.latestRetrieval = nil
	if a.retriever != nil {
		result, err := a.retriever.GatherContext(ctx, userInput, decision)
		if err != nil {
			// Retrieval failure degrades to an uninformed turn rather than
			// failing the conversation.
			slog.Error("retrieval failed, continuing without context", "error", err)
		} else {
			a.latestRetrieval = &result
			contextBlock = result.BuildContextBlock()
			if len(result.MasterChunks) > 0 || len(result.ActivityChunks) > 0 {
				a.lastRetrievalWithResults = &result
			}
		}
		if decision.NeedsLocationClarification {
			routingInstruction = locationClarificationInstruction
		}
	}

	selected := a.referencePool(mode)

	turn := models.PreparedTurn{
		ResponseMode:             mode,
		NeedsCitations:           detections.SourceRequest,
		ReferenceBlockReferences: lessonOnly(a.availableReferences()),
		ModuleReferenceSentence:  buildModuleReferenceSentence(selected),
	}

	// Lesson lookup always short-circuits to a pre-built reply listing the
	// matched lessons, or a fixed fallback.
	if detections.LessonLookup {
		turn.OverrideCitations = true
		turn.OverrideText = a.lessonLookupReply()
		return turn, nil
	}

	// A bare source request short-circuits to a reference block when
	// anything citable exists.
	if detections.SourcesOnly {
		if refs := lessonOnly(a.lastReferences()); len(refs) > 0 {
			turn.OverrideCitations = true
			turn.OverrideText = appendReferenceBlock("", refs)
			return turn, nil
		}
	}

	turn.Messages = a.buildMessages(userInput, contextBlock, routingInstruction, modeInstruction)
	return turn, nil
}

// Respond runs a full turn: prepare, complete, post-process, cite, record.
func (a *Agent) Respond(ctx context.Context, userInput string) (string, error) {
	turn, err := a.PrepareTurn(ctx, userInput)
	if err != nil {
		return "", err
	}
	if turn.OverrideCitations {
		reply := NormalizeEncoding(turn.OverrideText)
		a.recordExchange(userInput, reply)
		return reply, nil
	}

	raw, err := a.completer.Complete(ctx, turn.Messages)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	reply := a.finalizeReply(strings.TrimSpace(raw), turn)
	a.recordExchange(userInput, reply)
	return reply, nil
}

// StreamRespond runs a full turn with incremental output. Default-mode
// replies stream token by token, with any trailing citation block emitted
// after the stream ends. Replies in restricted modes are post-processed as a
// whole, so they are generated unstreamed and emitted as one chunk.
func (a *Agent) StreamRespond(ctx context.Context, userInput string, onToken func(string)) (string, error) {
	turn, err := a.PrepareTurn(ctx, userInput)
	if err != nil {
		return "", err
	}
	if turn.OverrideCitations {
		reply := NormalizeEncoding(turn.OverrideText)
		if onToken != nil {
			onToken(reply)
		}
		a.recordExchange(userInput, reply)
		return reply, nil
	}

	if turn.ResponseMode != models.ResponseModeDefault {
		raw, err := a.completer.Complete(ctx, turn.Messages)
		if err != nil {
			return "", fmt.Errorf("completion failed: %w", err)
		}
		reply := a.finalizeReply(strings.TrimSpace(raw), turn)
		if onToken != nil {
			onToken(reply)
		}
		a.recordExchange(userInput, reply)
		return reply, nil
	}

	var emitted strings.Builder
	raw, err := a.completer.Stream(ctx, turn.Messages, func(token string) {
		// Repair mis-encoded punctuation before the token reaches the client.
		norm := NormalizeEncoding(token)
		emitted.WriteString(norm)
		if onToken != nil {
			onToken(norm)
		}
	})
	if err != nil {
		return "", fmt.Errorf("stream failed: %w", err)
	}

	reply := a.finalizeReply(strings.TrimSpace(raw), turn)
	if onToken != nil {
		// Emit whatever the finalized reply adds beyond the streamed text,
		// typically the citation block. When the streamed text is not a
		// prefix of the reply (a mojibake sequence split across tokens, so
		// per-token repair missed it), emit the corrected reply whole.
		if trailing, ok := strings.CutPrefix(reply, strings.TrimSpace(emitted.String())); ok {
			if trailing != "" {
				onToken(trailing)
			}
		} else {
			onToken(reply)
		}
	}
	a.recordExchange(userInput, reply)
	return reply, nil
}

// finalizeReply applies mode post-processing and the citation policy to a
// generated reply.
func (a *Agent) finalizeReply(text string, turn models.PreparedTurn) string {
	reply := Postprocess(text, turn.ResponseMode, turn.ModuleReferenceSentence)
	if turn.NeedsCitations {
		reply = appendReferenceBlock(reply, turn.ReferenceBlockReferences)
	}
	return NormalizeEncoding(reply)
}

func (a *Agent) recordExchange(userInput, reply string) {
	a.history = append(a.history, models.Message{Role: models.RoleUser, Content: userInput})
	a.history = append(a.history, models.Message{Role: models.RoleAssistant, Content: reply})
}

// buildMessages assembles the completion payload: system prompt, optional
// context and instruction blocks, bounded history, then the user turn.
func (a *Agent) buildMessages(userInput, contextBlock, routingInstruction, modeInstruction string) []models.Message {
	messages := []models.Message{{Role: models.RoleSystem, Content: prompt.BuildCoachPrompt(a.state)}}
	if contextBlock != "" {
		messages = append(messages, models.Message{
			Role:    models.RoleSystem,
			Content: retrievalInstruction + "\n\n" + contextBlock,
		})
	}
	if routingInstruction != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: routingInstruction})
	}
	if modeInstruction != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: modeInstruction})
	}
	history := a.history
	if len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}
	messages = append(messages, history...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: userInput})
	return messages
}

// referencePool selects the module references the current mode may cite.
func (a *Agent) referencePool(mode models.ResponseMode) []retrieval.Chunk {
	n := referenceCount(mode)
	if n == 0 || a.latestRetrieval == nil {
		return nil
	}
	preferFoundational := mode == models.ResponseModeLowestIntent
	return a.selector.Select(a.latestRetrieval.MasterChunks, n, preferFoundational)
}

// availableReferences returns citations from this turn's retrieval, falling
// back to the last retrieval that produced anything.
func (a *Agent) availableReferences() []string {
	if a.latestRetrieval != nil &&
		(len(a.latestRetrieval.MasterChunks) > 0 || len(a.latestRetrieval.ActivityChunks) > 0) {
		return a.latestRetrieval.References()
	}
	return a.lastReferences()
}

func (a *Agent) lastReferences() []string {
	if a.lastRetrievalWithResults == nil {
		return nil
	}
	return a.lastRetrievalWithResults.References()
}

// lessonLookupReply builds the pre-built reply for which-lesson questions.
func (a *Agent) lessonLookupReply() string {
	refs := lessonOnly(a.availableReferences())
	if len(refs) == 0 {
		return lessonLookupFallback
	}
	return appendReferenceBlock("", refs)
}

// lessonOnly keeps lesson citations and drops activity ones; reference
// blocks cite curriculum material only.
func lessonOnly(references []string) []string {
	var out []string
	for _, ref := range references {
		if strings.HasPrefix(ref, "Lesson ") {
			out = append(out, ref)
		}
	}
	return out
}

// appendReferenceBlock attaches the citation block to a reply, or the
// no-citation fallback when nothing was found.
func appendReferenceBlock(base string, references []string) string {
	if len(references) == 0 {
		return strings.TrimSpace(base + "\n\n" + noReferenceFallback)
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(referenceBlockHeader)
	for _, ref := range references {
		b.WriteString("\n- ")
		b.WriteString(ref)
	}
	return strings.TrimSpace(b.String())
}

// buildModuleReferenceSentence renders the selected chunks as the single
// sentence appended to restricted-mode replies.
func buildModuleReferenceSentence(chunks []retrieval.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		title := c.SlideTitle
		if title == "" {
			title = c.LessonTitle
		}
		if title != "" {
			parts = append(parts, fmt.Sprintf("Lesson %d, Slide %d (%s)", c.LessonNumber, c.SlideNumber, title))
		} else {
			parts = append(parts, fmt.Sprintf("Lesson %d, Slide %d", c.LessonNumber, c.SlideNumber))
		}
	}
	return "There's more on this in " + strings.Join(parts, " and ") + " of your modules."
}
