package contact

import (
	"fmt"
	"slices"
	"strings"
)

// titlePriority is the order in which decision-makers are preferred.
var titlePriority = []string{
	"Owner", "Founder", "President", "General Manager", "Director", "Head Pro", "Manager",
}

const promptTemplate = `You are extracting the key decision-maker contact from a business website.

Existing row data: %s

Website text:
%s

Find the most relevant decision-maker. Priority order: %s.

Respond ONLY with valid JSON (no markdown, no explanation):
{"first_name": "...", "last_name": "...", "title": "...", "confidence": 0.0-1.0}

If no contact can be identified, respond with:
{"confidence": 0}`

// BuildPrompt renders the inference prompt. Existing fields with a blank
// value are left out; keys are listed in sorted order.
func BuildPrompt(text string, existing map[string]string) string {
	return fmt.Sprintf(promptTemplate, existingContext(existing), text, strings.Join(titlePriority, " > "))
}

func existingContext(existing map[string]string) string {
	keys := make([]string, 0, len(existing))
	for k, v := range existing {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "none"
	}
	slices.Sort(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ": " + existing[k]
	}
	return strings.Join(pairs, ", ")
}
