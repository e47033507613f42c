package reports

import "time"

// Retention is how long a persisted report lives after creation.
const Retention = 30 * 24 * time.Hour

// Report is a persisted analysis. It is written once and never updated.
type Report struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	Industry        string    `json:"industry"`
	Score           int       `json:"score"`
	KeywordMatch    int       `json:"keywordMatch"`
	MissingKeywords []string  `json:"missingKeywords"`
	SkillsFound     []string  `json:"skillsFound"`
	SkillsMissing   []string  `json:"skillsMissing"`
	FormatIssues    []string  `json:"formatIssues"`
	Suggestions     []string  `json:"suggestions"`
	ImprovedBullets []string  `json:"improvedBullets"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// Expired reports whether the report is past its retention window at now.
func (r Report) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

func (r Report) withNonNilLists() Report {
	r.MissingKeywords = nonNil(r.MissingKeywords)
	r.SkillsFound = nonNil(r.SkillsFound)
	r.SkillsMissing = nonNil(r.SkillsMissing)
	r.FormatIssues = nonNil(r.FormatIssues)
	r.Suggestions = nonNil(r.Suggestions)
	r.ImprovedBullets = nonNil(r.ImprovedBullets)
	return r
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
