package toolcall

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"

	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

// Reply is a model answer decoded once: either plain text or a request to
// run tools.
type Reply struct {
	// Text is the model output with the tool_calls payload removed.
	Text string

	Calls []tool.Call
}

func (r Reply) HasCalls() bool {
	return len(r.Calls) > 0
}

// Decode splits model output into free text and tool calls.
func Decode(content string) Reply {
	payload, start, end := findPayload(content)

	if payload == "" {
		return Reply{Text: content}
	}

	calls := parsePayload(payload)

	if len(calls) == 0 {
		return Reply{Text: content}
	}

	text := strings.TrimSpace(trimFence(content[:start]) + "\n" + trimFence(content[end:]))

	return Reply{
		Text:  text,
		Calls: calls,
	}
}

// Parse extracts the tool calls embedded in model output. Missing or
// malformed payloads yield no calls.
func Parse(content string) []tool.Call {
	return Decode(content).Calls
}

func parsePayload(payload string) []tool.Call {
	var result []tool.Call

	gjson.Get(payload, "tool_calls").ForEach(func(_, entry gjson.Result) bool {
		name := strings.TrimSpace(entry.Get("name").String())

		if name == "" {
			return true
		}

		result = append(result, tool.Call{
			Name:      name,
			Arguments: NormalizeArguments(entry.Get("arguments").Value()),
		})

		return true
	})

	return result
}

// findPayload returns the first JSON object in content with a tool_calls
// array, along with its byte offsets.
func findPayload(content string) (string, int, int) {
	objects := scanObjects(content)

	for _, o := range objects.roots {
		if found, ok := objects.search(content, o); ok {
			return content[found.start:found.end], found.start, found.end
		}
	}

	return "", 0, 0
}

type object struct {
	start int
	end   int
}

type objectTree struct {
	roots    []object
	children map[int][]object
}

// scanObjects collects every balanced brace pair of s in one pass, honouring
// JSON strings inside braces. Roots are the objects not enclosed by another
// balanced object; children are keyed by the start of their parent.
func scanObjects(s string) objectTree {
	type closed struct {
		object
		parent int
	}

	var spans []closed
	var stack []int

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = len(stack) > 0

		case '{':
			stack = append(stack, i)

		case '}':
			if len(stack) == 0 {
				continue
			}

			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			parent := -1

			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}

			spans = append(spans, closed{object{start, i + 1}, parent})
		}
	}

	unmatched := make(map[int]bool, len(stack))

	for _, offset := range stack {
		unmatched[offset] = true
	}

	tree := objectTree{
		children: make(map[int][]object),
	}

	// spans are in closing order, which is start order among siblings
	for _, span := range spans {
		if span.parent < 0 || unmatched[span.parent] {
			tree.roots = append(tree.roots, span.object)
			continue
		}

		tree.children[span.parent] = append(tree.children[span.parent], span.object)
	}

	return tree
}

// search returns the first object, o or one nested in it, that is valid JSON
// with a tool_calls array.
func (t objectTree) search(s string, o object) (object, bool) {
	candidate := s[o.start:o.end]

	if gjson.Valid(candidate) && gjson.Get(candidate, "tool_calls").IsArray() {
		return o, true
	}

	for _, child := range t.children[o.start] {
		if found, ok := t.search(s, child); ok {
			return found, true
		}
	}

	return object{}, false
}

func trimFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimPrefix(s, "```")

	return strings.TrimSpace(s)
}

type pair struct {
	Key   string `mapstructure:"key"`
	Name  string `mapstructure:"name"`
	Value any    `mapstructure:"value"`
}

// NormalizeArguments flattens the argument shapes models produce into a
// single map: a map, a JSON encoded string or a list of key/value pairs.
// Anything else becomes an empty map.
func NormalizeArguments(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v

	case string:
		var decoded any

		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return map[string]any{}
		}

		if _, ok := decoded.(string); ok {
			return map[string]any{}
		}

		return NormalizeArguments(decoded)

	case []any:
		result := map[string]any{}

		for _, item := range v {
			var p pair

			if err := mapstructure.Decode(item, &p); err != nil {
				continue
			}

			key := p.Key

			if key == "" {
				key = p.Name
			}

			if key == "" {
				continue
			}

			result[key] = p.Value
		}

		return result
	}

	return map[string]any{}
}
