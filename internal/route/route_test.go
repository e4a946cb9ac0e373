package route

import (
	"reflect"
	"testing"
)

func TestRouteGeneralQuery(t *testing.T) {
	d := Router{}.Route("How do habits form as we age?")
	if !d.UseMaster {
		t.Error("master index should always be consulted")
	}
	if d.UseActivities {
		t.Error("general query should not hit activities index")
	}
	if d.ActivityFilters != nil {
		t.Errorf("expected nil filters, got %+v", d.ActivityFilters)
	}
	if d.NeedsLocationClarification {
		t.Error("no clarification needed when activities index unused")
	}
}

func TestRouteActivityKeyword(t *testing.T) {
	d := Router{}.Route("Are there any classes I could join?")
	if !d.UseActivities {
		t.Error("activity keyword should enable activities index")
	}
	if !d.UseMaster {
		t.Error("master index should stay enabled")
	}
	if !d.NeedsLocationClarification {
		t.Error("activity query without a location should ask for one")
	}
}

func TestRouteLocationHint(t *testing.T) {
	d := Router{}.Route("What's happening near the Crystal Pool?")
	if !d.UseActivities {
		t.Error("location hint should force activities index")
	}
	if d.ActivityFilters == nil || d.ActivityFilters.Location != "fernwood" {
		t.Errorf("expected fernwood location, got %+v", d.ActivityFilters)
	}
	if d.NeedsLocationClarification {
		t.Error("recognized location should not trigger clarification")
	}
}

func TestRouteLocationHintOrder(t *testing.T) {
	// "uplands" also contains no other hint, but "oak bay" appears first in
	// the table, so a message with both resolves to oak bay either way.
	d := Router{}.Route("something at the Oak Bay rec centre in the Uplands")
	if d.ActivityFilters == nil || d.ActivityFilters.Location != "oak bay" {
		t.Errorf("expected oak bay location, got %+v", d.ActivityFilters)
	}
}

func TestRouteTypeKeyword(t *testing.T) {
	d := Router{}.Route("I'd like to try a yoga class")
	if d.ActivityFilters == nil || d.ActivityFilters.ActivityType != "yoga" {
		t.Errorf("expected yoga type filter, got %+v", d.ActivityFilters)
	}
	if !d.UseActivities {
		t.Error("type keyword should force activities index")
	}
}

func TestRouteTypeKeywordFirstMatchWins(t *testing.T) {
	d := Router{}.Route("Should I do yoga or go for a walk?")
	if d.ActivityFilters == nil || d.ActivityFilters.ActivityType != "yoga" {
		t.Errorf("expected yoga (first matching type), got %+v", d.ActivityFilters)
	}
}

func TestRouteCostAndDays(t *testing.T) {
	d := Router{}.Route("Anything free on Monday or Wednesday? Monday works best.")
	if d.ActivityFilters == nil {
		t.Fatal("expected filters")
	}
	if d.ActivityFilters.CostLabel != "free" {
		t.Errorf("cost label = %q, want free", d.ActivityFilters.CostLabel)
	}
	want := []string{"Monday", "Wednesday"}
	if !reflect.DeepEqual(d.ActivityFilters.Days, want) {
		t.Errorf("days = %v, want %v (deduped, first-mention order)", d.ActivityFilters.Days, want)
	}
}

func TestRouteWeekendCapitalization(t *testing.T) {
	d := Router{}.Route("anything on weekends?")
	if d.ActivityFilters == nil || len(d.ActivityFilters.Days) != 1 || d.ActivityFilters.Days[0] != "Weekends" {
		t.Errorf("expected [Weekends], got %+v", d.ActivityFilters)
	}
}

func TestRouteIdempotent(t *testing.T) {
	inputs := []string{
		"Any local walking groups near me?",
		"free pickleball downtown on Saturday",
		"How do habits form as we age?",
	}
	r := Router{}
	for _, in := range inputs {
		first := r.Route(in)
		second := r.Route(in)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Route(%q) not deterministic: %+v vs %+v", in, first, second)
		}
	}
}
