package analyses

import (
	"ats-resume-checker/internal/reports"
)

const (
	StatusReceived         = "received"
	StatusValidated        = "validated"
	StatusExtracted        = "extracted"
	StatusAnalyzed         = "analyzed"
	StatusNormalized       = "normalized"
	StatusPersistAttempted = "persist_attempted"
	StatusCleanedUp        = "cleaned_up"
	StatusDone             = "done"
	StatusFailed           = "failed"
)

// Record is the canonical analysis output. Every field is present after normalization.
type Record struct {
	Score           int      `json:"score"`
	KeywordMatch    int      `json:"keywordMatch"`
	MissingKeywords []string `json:"missingKeywords"`
	SkillsFound     []string `json:"skillsFound"`
	SkillsMissing   []string `json:"skillsMissing"`
	FormatIssues    []string `json:"formatIssues"`
	Suggestions     []string `json:"suggestions"`
	ImprovedBullets []string `json:"improvedBullets"`
	FileName        string   `json:"fileName"`
	Industry        string   `json:"industry"`
}

// Result is what a run hands back to the caller. ReportID is nil when nothing was persisted.
type Result struct {
	Record
	ReportID *string `json:"reportId"`
}

// PersistOutcome describes the best-effort save step.
type PersistOutcome struct {
	ReportID   string
	Persisted  bool
	SkipReason string
}

func (o PersistOutcome) reportIDPtr() *string {
	if !o.Persisted || o.ReportID == "" {
		return nil
	}
	id := o.ReportID
	return &id
}

func emptyRecord() Record {
	return Record{
		MissingKeywords: []string{},
		SkillsFound:     []string{},
		SkillsMissing:   []string{},
		FormatIssues:    []string{},
		Suggestions:     []string{},
		ImprovedBullets: []string{},
	}
}

func (r Record) toReport() reports.Report {
	return reports.Report{
		FileName:        r.FileName,
		Industry:        r.Industry,
		Score:           r.Score,
		KeywordMatch:    r.KeywordMatch,
		MissingKeywords: r.MissingKeywords,
		SkillsFound:     r.SkillsFound,
		SkillsMissing:   r.SkillsMissing,
		FormatIssues:    r.FormatIssues,
		Suggestions:     r.Suggestions,
		ImprovedBullets: r.ImprovedBullets,
	}
}
