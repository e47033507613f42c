package analyses

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ats-resume-checker/internal/shared/telemetry"
)

const completeReply = `{
	"score": 78,
	"keywordMatch": 64,
	"missingKeywords": ["Kubernetes"],
	"skillsFound": ["Go", "PostgreSQL"],
	"skillsMissing": ["Terraform"],
	"formatIssues": [],
	"suggestions": ["Quantify impact"],
	"improvedBullets": ["Cut p99 latency by 40% by rewriting the cache layer"]
}`

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := telemetry.Logger()
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(prev) })
	return logs
}

func TestSchemaDriftAcceptsCompleteReply(t *testing.T) {
	drift, err := SchemaDrift(completeReply)
	if err != nil {
		t.Fatalf("SchemaDrift: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("expected no drift, got %v", drift)
	}
}

func TestSchemaDriftReportsTypeAndMissingKeys(t *testing.T) {
	drift, err := SchemaDrift(`{"score": "85", "keywordMatch": 120, "skillsFound": "Go"}`)
	if err != nil {
		t.Fatalf("SchemaDrift: %v", err)
	}
	joined := strings.Join(drift, "\n")
	for _, want := range []string{"score", "keywordMatch", "skillsFound", "suggestions"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected drift to mention %s, got:\n%s", want, joined)
		}
	}
}

func TestNormalizeResponseLogsDriftWithoutFailing(t *testing.T) {
	logs := observeLogs(t)

	rec, err := NormalizeResponse(`{"score": "85"}`)
	if err != nil {
		t.Fatalf("NormalizeResponse: %v", err)
	}
	if rec.Score != 85 {
		t.Fatalf("expected score 85, got %d", rec.Score)
	}
	if logs.FilterMessage("analysis.schema_drift").Len() != 1 {
		t.Fatalf("expected one schema drift warning")
	}

	if _, err := NormalizeResponse(completeReply); err != nil {
		t.Fatalf("NormalizeResponse: %v", err)
	}
	if logs.FilterMessage("analysis.schema_drift").Len() != 1 {
		t.Fatalf("expected no drift warning for a complete reply")
	}
}
