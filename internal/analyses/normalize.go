package analyses

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"

	"ats-resume-checker/internal/shared/telemetry"
)

const codeFence = "```"

// StripCodeFence removes a Markdown fence (optionally tagged json) around body.
// Unfenced input is returned trimmed, so applying it twice changes nothing.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, codeFence) {
		s = s[len(codeFence):]
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, codeFence) {
		s = strings.TrimSpace(s[:len(s)-len(codeFence)])
	}
	return s
}

// NormalizeResponse turns raw model output into a Record.
// Only text that is not a single JSON object is an error; every field gets a safe default.
func NormalizeResponse(raw string) (Record, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return Record{}, &MalformedResponseError{Reason: "empty response"}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return Record{}, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Record{}, &MalformedResponseError{Reason: "unexpected data after JSON value"}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return Record{}, &MalformedResponseError{Reason: "expected a JSON object"}
	}

	logSchemaDrift(body)

	rec := emptyRecord()
	rec.Score = percent(obj["score"])
	rec.KeywordMatch = percent(obj["keywordMatch"])
	rec.MissingKeywords = stringList(obj["missingKeywords"])
	rec.SkillsFound = stringList(obj["skillsFound"])
	rec.SkillsMissing = stringList(obj["skillsMissing"])
	rec.FormatIssues = stringList(obj["formatIssues"])
	rec.Suggestions = stringList(obj["suggestions"])
	rec.ImprovedBullets = stringList(obj["improvedBullets"])
	return rec, nil
}

func logSchemaDrift(body string) {
	drift, err := SchemaDrift(body)
	if err != nil {
		telemetry.Warn("analysis.schema_check_failed", map[string]any{"err": err})
		return
	}
	if len(drift) == 0 {
		return
	}
	telemetry.Warn("analysis.schema_drift", map[string]any{
		"count": len(drift),
		"drift": drift,
	})
}

// percent coerces v to its leading integer clamped to [0,100]. Anything else is 0.
func percent(v any) int {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return percentFromString(t.String())
		}
		return clampPercent(f)
	case float64:
		return clampPercent(t)
	case string:
		return percentFromString(t)
	default:
		return 0
	}
}

func percentFromString(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}
	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if n <= 100 {
			n = n*10 + int(r-'0')
		}
	}
	if digits == 0 || negative {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func clampPercent(f float64) int {
	f = math.Trunc(f)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(f)
	}
}

// stringList keeps array order and length. Strings pass through verbatim, nulls
// become "" and other values become compact JSON text. Non-arrays yield an empty list.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case nil:
			out = append(out, "")
		case string:
			out = append(out, t)
		default:
			text, _ := compactJSON(t)
			out = append(out, text)
		}
	}
	return out
}

func compactJSON(v any) (string, bool) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}
