package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
)

type stubCompleter struct {
	reply        string
	err          error
	calls        int
	lastMessages []models.Message
}

func (s *stubCompleter) Complete(_ context.Context, messages []models.Message) (string, error) {
	s.calls++
	s.lastMessages = messages
	return s.reply, s.err
}

func (s *stubCompleter) Stream(_ context.Context, messages []models.Message, onToken func(string)) (string, error) {
	s.calls++
	s.lastMessages = messages
	if s.err != nil {
		return "", s.err
	}
	mid := len(s.reply) / 2
	if onToken != nil {
		onToken(s.reply[:mid])
		onToken(s.reply[mid:])
	}
	return s.reply, nil
}

type stubRetriever struct {
	result retrieval.Result
	err    error
	calls  int
}

func (s *stubRetriever) GatherContext(context.Context, string, models.RouteDecision) (retrieval.Result, error) {
	s.calls++
	return s.result, s.err
}

func score(v float64) *float64 { return &v }

func stubResult() retrieval.Result {
	return retrieval.Result{
		MasterChunks: []retrieval.Chunk{{
			Source:            retrieval.SourceMaster,
			LessonNumber:      1,
			LessonTitle:       "Why Movement Matters",
			SlideNumber:       2,
			SlideTitle:        "Benefits",
			GlobalSlideNumber: 2,
			Text:              "Regular movement supports balance and mood.",
			Score:             score(0.91),
		}},
		ActivityChunks: []retrieval.Chunk{{
			Source:       retrieval.SourceActivity,
			ActivityID:   3,
			ActivityName: "Gentle Yoga",
			Location:     "Oak Bay",
			Schedule:     "Tuesdays 10am",
			CostLabel:    "free",
			ActivityType: "yoga",
			Text:         "Gentle Yoga at Oak Bay rec centre.",
		}},
	}
}

func TestRespondInjectsRetrievedContext(t *testing.T) {
	completer := &stubCompleter{reply: "Glad to hear from you."}
	retriever := &stubRetriever{result: stubResult()}
	agent := NewAgent(completer, retriever, Config{})

	reply, err := agent.Respond(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Glad to hear from you." {
		t.Errorf("reply = %q", reply)
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}
	if len(completer.lastMessages) < 3 {
		t.Fatalf("messages = %d, want system prompt, context block, user turn", len(completer.lastMessages))
	}
	ctxMsg := completer.lastMessages[1]
	if ctxMsg.Role != models.RoleSystem {
		t.Errorf("context message role = %q", ctxMsg.Role)
	}
	if !strings.Contains(ctxMsg.Content, "Master slides:") {
		t.Errorf("context block missing master section: %q", ctxMsg.Content)
	}
	if !strings.Contains(ctxMsg.Content, "Local activities:") {
		t.Errorf("context block missing activities section: %q", ctxMsg.Content)
	}
	last := completer.lastMessages[len(completer.lastMessages)-1]
	if last.Role != models.RoleUser || last.Content != "Good morning" {
		t.Errorf("final message = %+v, want the user turn", last)
	}
}

func TestRespondRecordsHistory(t *testing.T) {
	completer := &stubCompleter{reply: "Noted."}
	agent := NewAgent(completer, nil, Config{})

	if _, err := agent.Respond(context.Background(), "Good morning"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got := agent.Snapshot()["history_length"]; got != "2" {
		t.Errorf("history_length = %q, want 2", got)
	}

	if _, err := agent.Respond(context.Background(), "Still here"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	// The second call replays the first exchange before the new user turn.
	var found bool
	for _, m := range completer.lastMessages {
		if m.Role == models.RoleAssistant && m.Content == "Noted." {
			found = true
		}
	}
	if !found {
		t.Errorf("prior assistant reply not replayed: %+v", completer.lastMessages)
	}
}

func TestRespondAppendsCitationsOnSourceRequest(t *testing.T) {
	completer := &stubCompleter{reply: "Those points come from your program materials."}
	retriever := &stubRetriever{result: stubResult()}
	agent := NewAgent(completer, retriever, Config{})

	reply, err := agent.Respond(context.Background(), "can you show me the sources for that advice")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(reply, referenceBlockHeader) {
		t.Errorf("citation header missing: %q", reply)
	}
	if !strings.Contains(reply, "Lesson 1: Why Movement Matters -> Slide 2 (Benefits)") {
		t.Errorf("lesson reference missing: %q", reply)
	}
	// Activity rows never appear in the citation block.
	if strings.Contains(reply, "Gentle Yoga") {
		t.Errorf("activity leaked into citations: %q", reply)
	}
}

func TestRespondSourcesOnlyShortCircuits(t *testing.T) {
	completer := &stubCompleter{reply: "unused"}
	retriever := &stubRetriever{result: stubResult()}
	agent := NewAgent(completer, retriever, Config{})

	reply, err := agent.Respond(context.Background(), "sources?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for a bare source request", completer.calls)
	}
	if !strings.HasPrefix(reply, referenceBlockHeader) {
		t.Errorf("reply = %q, want bare reference block", reply)
	}
	if !strings.Contains(reply, "Lesson 1: Why Movement Matters -> Slide 2 (Benefits)") {
		t.Errorf("lesson reference missing: %q", reply)
	}
}

func TestRespondLessonLookupFallback(t *testing.T) {
	completer := &stubCompleter{reply: "unused"}
	agent := NewAgent(completer, nil, Config{})

	reply, err := agent.Respond(context.Background(), "which lesson was that?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for a lesson lookup", completer.calls)
	}
	if reply != lessonLookupFallback {
		t.Errorf("reply = %q, want lesson lookup fallback", reply)
	}
}

func TestRespondLessonLookupListsLessons(t *testing.T) {
	completer := &stubCompleter{reply: "unused"}
	retriever := &stubRetriever{result: stubResult()}
	agent := NewAgent(completer, retriever, Config{})

	reply, err := agent.Respond(context.Background(), "which lesson covered balance?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.HasPrefix(reply, referenceBlockHeader) {
		t.Errorf("reply = %q, want reference block", reply)
	}
	if !strings.Contains(reply, "Lesson 1: Why Movement Matters -> Slide 2 (Benefits)") {
		t.Errorf("lesson reference missing: %q", reply)
	}
}

func TestRespondDegradesWhenRetrievalFails(t *testing.T) {
	completer := &stubCompleter{reply: "Still happy to chat."}
	retriever := &stubRetriever{err: errors.New("index offline")}
	agent := NewAgent(completer, retriever, Config{})

	reply, err := agent.Respond(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Still happy to chat." {
		t.Errorf("reply = %q", reply)
	}
	for _, m := range completer.lastMessages {
		if strings.Contains(m.Content, "Master slides:") {
			t.Errorf("context block present despite retrieval failure: %q", m.Content)
		}
	}
}

func TestRespondCompletionErrorPropagates(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model unavailable")}
	agent := NewAgent(completer, nil, Config{})

	if _, err := agent.Respond(context.Background(), "Good morning"); err == nil {
		t.Fatal("expected error from failed completion")
	}
	if got := agent.Snapshot()["history_length"]; got != "0" {
		t.Errorf("history_length = %q after failed turn, want 0", got)
	}
}

func TestStreamRespondEmitsTokens(t *testing.T) {
	completer := &stubCompleter{reply: "Movement is a fine topic."}
	agent := NewAgent(completer, nil, Config{})

	var streamed strings.Builder
	reply, err := agent.StreamRespond(context.Background(), "Good morning", func(tok string) {
		streamed.WriteString(tok)
	})
	if err != nil {
		t.Fatalf("StreamRespond: %v", err)
	}
	if reply != "Movement is a fine topic." {
		t.Errorf("reply = %q", reply)
	}
	if streamed.String() != reply {
		t.Errorf("streamed %q, want %q", streamed.String(), reply)
	}
}

func TestStreamRespondNormalizesTokens(t *testing.T) {
	// The mis-encoded em dash lands inside the second stream token, so the
	// per-token repair catches it and the client never sees the raw bytes.
	completer := &stubCompleter{reply: "Moving daily helps â€” truly."}
	agent := NewAgent(completer, nil, Config{})

	var chunks []string
	var streamed strings.Builder
	reply, err := agent.StreamRespond(context.Background(), "Good morning", func(tok string) {
		chunks = append(chunks, tok)
		streamed.WriteString(tok)
	})
	if err != nil {
		t.Fatalf("StreamRespond: %v", err)
	}
	want := "Moving daily helps - truly."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if streamed.String() != want {
		t.Errorf("streamed %q, want %q", streamed.String(), want)
	}
	if len(chunks) != 2 {
		t.Errorf("chunks = %d, want 2 with no corrective emission", len(chunks))
	}
}

func TestStreamRespondCorrectsSplitSequence(t *testing.T) {
	// "Danceâ€”walk." splits mid-sequence at the stub's halfway point, so the
	// per-token repair cannot fire; the corrected reply is emitted whole.
	completer := &stubCompleter{reply: "Danceâ€”walk."}
	agent := NewAgent(completer, nil, Config{})

	var chunks []string
	reply, err := agent.StreamRespond(context.Background(), "Good morning", func(tok string) {
		chunks = append(chunks, tok)
	})
	if err != nil {
		t.Fatalf("StreamRespond: %v", err)
	}
	if reply != "Dance-walk." {
		t.Errorf("reply = %q", reply)
	}
	if len(chunks) == 0 || chunks[len(chunks)-1] != reply {
		t.Errorf("final chunk = %v, want the corrected reply", chunks)
	}
}

func TestStreamRespondOverrideEmitsOnce(t *testing.T) {
	completer := &stubCompleter{reply: "unused"}
	retriever := &stubRetriever{result: stubResult()}
	agent := NewAgent(completer, retriever, Config{})

	var chunks []string
	reply, err := agent.StreamRespond(context.Background(), "sources?", func(tok string) {
		chunks = append(chunks, tok)
	})
	if err != nil {
		t.Fatalf("StreamRespond: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != reply {
		t.Errorf("chunks = %v, want the whole reply in one emit", chunks)
	}
}

func TestSnapshotTracksState(t *testing.T) {
	completer := &stubCompleter{reply: "Sounds like a steady routine."}
	agent := NewAgent(completer, nil, Config{})

	if _, err := agent.Respond(context.Background(), "I walk 3 times a week."); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	snap := agent.Snapshot()
	if snap["process_layer"] != string(models.LayerRegulatory) {
		t.Errorf("process_layer = %q, want regulatory", snap["process_layer"])
	}
	if snap["activities"] != "walking" {
		t.Errorf("activities = %q, want walking", snap["activities"])
	}
	if snap["pending_layer_question"] == "" {
		t.Errorf("expected a pending duration question")
	}
}
