// Package suggestion turns a free-form model reply into a validated
// DiagnosticSuggestion. Sanitize only isolates a JSON candidate; Validate is the
// single gate that decides whether the reply is usable.
package suggestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	KeyPossibleConditions   = "possible_conditions"
	KeyReasoning            = "reasoning"
	KeyRedFlags             = "red_flags"
	KeyRecommendedNextSteps = "recommended_next_steps"
	KeyDisclaimer           = "disclaimer"
)

type DiagnosticSuggestion struct {
	PossibleConditions   []string `json:"possible_conditions"`
	Reasoning            string   `json:"reasoning"`
	RedFlags             []string `json:"red_flags"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
	Disclaimer           string   `json:"disclaimer"`
}

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid model response")

type Stage string

const (
	StageParse  Stage = "parse"
	StageSchema Stage = "schema"
)

type ValidationError struct {
	Stage  Stage
	Reason string
	// Raw is the reply as received. It is for logs only.
	Raw string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s failed: %s", ErrInvalid, e.Stage, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Parse sanitizes and validates a raw model reply.
func Parse(raw string) (DiagnosticSuggestion, error) {
	s, err := Validate(Sanitize(raw))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Raw = raw
		}
		return DiagnosticSuggestion{}, err
	}
	return s, nil
}

// Sanitize strips markdown fencing and isolates the span from the first '{'
// to the last '}'. When no such span exists the cleaned text is returned as is.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.Trim(text, "`")
		text = strings.TrimLeftFunc(text, isLanguageTagRune)
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

func isLanguageTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+' || r == '.'
}

var listKeys = []string{KeyPossibleConditions, KeyRedFlags, KeyRecommendedNextSteps}
var stringKeys = []string{KeyReasoning, KeyDisclaimer}

// Validate parses candidate as JSON and checks it against the five-key schema.
// Unknown keys, missing keys, nulls and wrong types are all rejected.
func Validate(candidate string) (DiagnosticSuggestion, error) {
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return DiagnosticSuggestion{}, &ValidationError{Stage: StageParse, Reason: err.Error(), Raw: candidate}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return DiagnosticSuggestion{}, schemaError(candidate, "top-level value is not an object")
	}

	var extra []string
	for key := range obj {
		if !isKnownKey(key) {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return DiagnosticSuggestion{}, schemaError(candidate, "unexpected keys: "+strings.Join(extra, ", "))
	}

	lists := make(map[string][]string, len(listKeys))
	for _, key := range listKeys {
		list, err := stringList(obj, key)
		if err != nil {
			return DiagnosticSuggestion{}, schemaError(candidate, err.Error())
		}
		lists[key] = list
	}

	strs := make(map[string]string, len(stringKeys))
	for _, key := range stringKeys {
		val, present := obj[key]
		if !present {
			return DiagnosticSuggestion{}, schemaError(candidate, "missing key "+key)
		}
		s, ok := val.(string)
		if !ok {
			return DiagnosticSuggestion{}, schemaError(candidate, fmt.Sprintf("%s must be a string, got %s", key, jsonType(val)))
		}
		strs[key] = s
	}

	return DiagnosticSuggestion{
		PossibleConditions:   lists[KeyPossibleConditions],
		Reasoning:            strs[KeyReasoning],
		RedFlags:             lists[KeyRedFlags],
		RecommendedNextSteps: lists[KeyRecommendedNextSteps],
		Disclaimer:           strs[KeyDisclaimer],
	}, nil
}

func stringList(obj map[string]any, key string) ([]string, error) {
	val, present := obj[key]
	if !present {
		return nil, fmt.Errorf("missing key %s", key)
	}
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings, got %s", key, jsonType(val))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %s", key, i, jsonType(item))
		}
		out = append(out, s)
	}
	return out, nil
}

func isKnownKey(key string) bool {
	switch key {
	case KeyPossibleConditions, KeyReasoning, KeyRedFlags, KeyRecommendedNextSteps, KeyDisclaimer:
		return true
	}
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func schemaError(candidate, reason string) error {
	return &ValidationError{Stage: StageSchema, Reason: reason, Raw: candidate}
}
