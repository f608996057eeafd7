package generator

import (
	"regexp"

	"github.com/tidwall/jsonc"
)

var (
	// jsonBlockPattern matches a JSON object inside a markdown code block.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern matches the outermost JSON object.
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON returns the JSON object of a model reply as strict JSON.
// Code fences, comments and trailing commas are tolerated. It returns nil
// when the reply holds no object.
func ExtractJSON(reply string) []byte {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(reply); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(reply)
	}
	if raw == "" {
		return nil
	}
	return jsonc.ToJSON([]byte(raw))
}
