package prompt

import (
	"strings"
	"testing"

	"architect3d/internal/catalog"
)

func TestBuildDropsEmptyAndSentinelValues(t *testing.T) {
	selections := []Selection{
		{Name: "Wall Color", Value: "Sage Green"},
		{Name: "Flooring", Value: "None"},
		{Name: "Lighting", Value: "no"},
		{Name: "Ceiling", Value: "   "},
	}
	got := Build("Living Room", selections, "cozy scandinavian feel", false)

	if !strings.Contains(got, "Wall Color: Sage Green") {
		t.Errorf("kept selection missing from prompt: %q", got)
	}
	for _, dropped := range []string{"Flooring", "Lighting", "Ceiling"} {
		if strings.Contains(got, dropped) {
			t.Errorf("dropped selection %q leaked into prompt: %q", dropped, got)
		}
	}
	if !strings.Contains(got, "cozy scandinavian feel") {
		t.Errorf("description missing from prompt: %q", got)
	}
}

func TestBuildFallbacks(t *testing.T) {
	got := Build("Kitchen", nil, "   ", false)
	if !strings.Contains(got, fallbackIntent) {
		t.Errorf("expected fallback intent in %q", got)
	}
	if !strings.Contains(got, fallbackChoices) {
		t.Errorf("expected fallback choices in %q", got)
	}
	if !strings.Contains(got, qualityDirective) {
		t.Errorf("expected quality directive in %q", got)
	}
}

func TestBuildPlanHint(t *testing.T) {
	with := Build("Kitchen", nil, "bright", true)
	without := Build("Kitchen", nil, "bright", false)
	if !strings.Contains(with, planHint) {
		t.Errorf("plan hint missing: %q", with)
	}
	if strings.Contains(without, planHint) {
		t.Errorf("plan hint present without upload: %q", without)
	}
}

func TestFrontExteriorNeverMentionsPool(t *testing.T) {
	selections := []Selection{
		{Name: "Pool", Value: "Infinity pool"},
		{Name: "Landscaping", Value: "Desert"},
	}
	descriptions := []string{
		"a villa with a huge pool in the garden",
		"POOLSIDE lounge and patio",
		"plain suburban home",
	}
	for _, desc := range descriptions {
		got := Build(catalog.FrontExterior, selections, desc, false)
		if strings.Contains(strings.ToLower(got), "pool") {
			t.Errorf("front exterior prompt mentions pool for %q: %q", desc, got)
		}
		if !strings.Contains(got, "Landscaping: Desert") {
			t.Errorf("non-pool selection dropped: %q", got)
		}
	}

	back := Build(catalog.BackExterior, selections, "a villa with a pool", false)
	if !strings.Contains(strings.ToLower(back), "pool") {
		t.Errorf("back exterior should keep pool mentions: %q", back)
	}
}

func TestOrderedSelectionsFollowsCatalogOrder(t *testing.T) {
	opts := catalog.Options("Kitchen")
	if len(opts) < 3 {
		t.Fatal("Kitchen needs at least three options for this test")
	}
	selected := map[string]string{
		opts[2].Name: opts[2].Values[0],
		opts[0].Name: opts[0].Values[0],
	}
	got := OrderedSelections("Kitchen", selected)
	if len(got) != 2 {
		t.Fatalf("got %d selections, want 2", len(got))
	}
	if got[0].Name != opts[0].Name || got[1].Name != opts[2].Name {
		t.Errorf("selections out of catalog order: %v", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	selected := map[string]string{}
	for _, opt := range catalog.Options("Home Office") {
		selected[opt.Name] = opt.Values[0]
	}
	first := Build("Home Office", OrderedSelections("Home Office", selected), "calm workspace", false)
	for i := 0; i < 20; i++ {
		again := Build("Home Office", OrderedSelections("Home Office", selected), "calm workspace", false)
		if again != first {
			t.Fatalf("prompt not deterministic:\n%q\n%q", first, again)
		}
	}
}
