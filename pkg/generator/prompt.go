package generator

import (
	"fmt"
	"strings"

	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/resource"
)

const promptHeader = `You are a cataloguer completing the metadata of one resource.
Reply with a single JSON object mapping each property term to the complete
list of values the resource should have for it. Keep correct existing values
unchanged. Encode values as:
  plain text:           "text" or {"@value": "text", "@language": "en"}
  link to a resource:   {"@resource": 12}
  uri:                  {"@uri": "http://...", "@label": "label"}
Only use the properties listed below.`

// BuildPrompt describes the governed properties of pol and the current
// values of the resource.
func BuildPrompt(pol *policy.Policy, existing []resource.Value) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nProperties:\n")

	current := resource.ByTerm(existing)
	for _, term := range pol.Terms {
		fmt.Fprintf(&b, "- %s", term)
		if pol.Template != nil {
			if prop, ok := pol.Template.Property(term); ok && prop.Label != "" {
				fmt.Fprintf(&b, " (%s)", prop.Label)
			}
		}
		fmt.Fprintf(&b, "; types: %s", strings.Join(pol.AllowedTypes(term), ", "))
		if limit := pol.MaxValues(term); limit > 0 {
			fmt.Fprintf(&b, "; at most %d value(s)", limit)
		}
		if lang := pol.Language(term); lang != "" {
			fmt.Fprintf(&b, "; language: %s", lang)
		}
		if !pol.IsEditable(term) {
			b.WriteString("; existing values are final")
		}
		b.WriteByte('\n')

		for _, v := range current[term] {
			fmt.Fprintf(&b, "    current: %s\n", v.Value)
		}
	}
	return b.String()
}
