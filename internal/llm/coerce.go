package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

var fenceRegex = regexp.MustCompile("(?is)```(?:json\\b)?\\s*(.*?)```")

// coerceStrategy yields candidate JSON texts, tried in order.
type coerceStrategy struct {
	name       string
	candidates func(text string) []string
}

var coerceChain = []coerceStrategy{
	{name: "direct", candidates: func(text string) []string { return []string{text} }},
	{name: "fenced", candidates: fencedBlocks},
	{name: "braces", candidates: braceSpan},
}

// CoerceError lists why every strategy failed.
type CoerceError struct {
	Reasons []string
	Excerpt string
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("no JSON object found (%s); reply began: %q", strings.Join(e.Reasons, "; "), e.Excerpt)
}

func (e *CoerceError) Unwrap() error {
	return common.ErrInvalidModelOutput
}

// CoerceJSONObject recovers a JSON object from a model reply: the whole text, then each fenced
// block in document order, then the span from the first '{' to the last '}'.
func CoerceJSONObject(text string) (map[string]any, error) {
	var reasons []string
	for _, s := range coerceChain {
		cands := s.candidates(text)
		if len(cands) == 0 {
			reasons = append(reasons, s.name+": no candidate")
			continue
		}
		for i, c := range cands {
			obj, err := decodeObject(c)
			if err == nil {
				return obj, nil
			}
			label := s.name
			if len(cands) > 1 {
				label = fmt.Sprintf("%s[%d]", s.name, i)
			}
			reasons = append(reasons, label+": "+err.Error())
		}
	}
	return nil, common.NewAppError(common.CodeInvalidModelOutput, "unable to parse model reply",
		&CoerceError{Reasons: reasons, Excerpt: excerpt(text, 200)})
}

func fencedBlocks(text string) []string {
	matches := fenceRegex.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func braceSpan(text string) []string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}
	return []string{text[start : end+1]}
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, not an object", jsonKind(v))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
