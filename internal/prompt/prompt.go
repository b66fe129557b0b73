// Package prompt derives the natural-language generation prompt from a
// subcategory, the user's option selections and free-text design intent.
// Everything here is pure: same inputs, same prompt.
package prompt

import (
	"fmt"
	"strings"

	"architect3d/internal/catalog"
)

const (
	planHint         = "Consider the uploaded architectural plan as a guide. "
	fallbackIntent   = "Client unspecified style; pick tasteful contemporary."
	fallbackChoices  = "designer's choice with cohesive style"
	qualityDirective = "Balanced composition, realistic lighting, 4k detail, magazine quality."
)

// Selection is one chosen option, kept as an ordered pair so the prompt is
// deterministic regardless of how the request decoded its option map.
type Selection struct {
	Name  string
	Value string
}

// OrderedSelections projects a decoded option map onto the catalog's declared
// option order for the subcategory. Names absent from the map are skipped.
func OrderedSelections(subcategory string, selected map[string]string) []Selection {
	opts := catalog.Options(subcategory)
	out := make([]Selection, 0, len(selected))
	for _, opt := range opts {
		if v, ok := selected[opt.Name]; ok {
			out = append(out, Selection{Name: opt.Name, Value: v})
		}
	}
	return out
}

// Build assembles the generation prompt. Empty and "None"/"No" sentinel values
// are dropped; Front Exterior prompts never mention pools, no matter what the
// description or selections contain.
func Build(subcategory string, selections []Selection, description string, planUploaded bool) string {
	kept := make([]string, 0, len(selections))
	for _, sel := range selections {
		v := strings.TrimSpace(sel.Value)
		if v == "" || strings.EqualFold(v, "none") || strings.EqualFold(v, "no") {
			continue
		}
		if subcategory == catalog.FrontExterior && mentionsPool(sel.Name+" "+v) {
			continue
		}
		kept = append(kept, sel.Name+": "+v)
	}

	intent := strings.TrimSpace(description)
	if subcategory == catalog.FrontExterior {
		intent = stripPoolTokens(intent)
	}
	if intent == "" {
		intent = fallbackIntent
	}

	choices := fallbackChoices
	if len(kept) > 0 {
		choices = strings.Join(kept, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "High-quality photorealistic %s rendering for a residential home. ", subcategory)
	if planUploaded {
		b.WriteString(planHint)
	}
	fmt.Fprintf(&b, "Design intent: %s ", intent)
	fmt.Fprintf(&b, "Apply choices -> %s. ", choices)
	b.WriteString(qualityDirective)
	return b.String()
}

func mentionsPool(s string) bool {
	return strings.Contains(strings.ToLower(s), "pool")
}

// stripPoolTokens removes every whitespace-separated token containing "pool".
func stripPoolTokens(s string) string {
	if !mentionsPool(s) {
		return s
	}
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if mentionsPool(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
