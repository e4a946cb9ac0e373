package prompt

import (
	"strings"
	"testing"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

func TestBuildCoachPromptIncludesStateBlock(t *testing.T) {
	state := models.ConversationState{
		ProcessLayer:    models.LayerRegulatory,
		LayerConfidence: 0.75,
		PendingQuestion: "Has this been going on for a while?",
		Barrier:         "time pressure",
		Activities:      "walking",
		TimeAvailable:   "20 minutes",
	}
	p := BuildCoachPrompt(state)

	if !strings.HasPrefix(p, BasePrompt) {
		t.Error("prompt must start with the base persona text")
	}
	for _, want := range []string{
		"Current internal context (never reveal directly to the user):",
		"- Process layer: regulatory",
		"- Layer confidence: 0.75",
		"- Layer clarifying question: Has this been going on for a while?",
		"- Main barrier: time pressure",
		"- Preferred activities: walking",
		"- Time available today: 20 minutes",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildCoachPromptDefaults(t *testing.T) {
	p := BuildCoachPrompt(models.NewConversationState())
	if !strings.Contains(p, "- Process layer: unclassified") {
		t.Error("fresh state should report unclassified layer")
	}
	if !strings.Contains(p, "- Layer confidence: 0.00") {
		t.Error("fresh state should report zero confidence")
	}
	if !strings.Contains(p, "- Layer clarifying question: none") {
		t.Error("empty pending question should render as none")
	}
	if !strings.Contains(p, "- Main barrier: unknown") {
		t.Error("fresh state should report unknown barrier")
	}
}
