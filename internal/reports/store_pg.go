package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *PGStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Save inserts a new report.
func (s *PGStore) Save(ctx context.Context, report Report) (Report, error) {
	if s == nil || s.DB == nil {
		return Report{}, ErrUnavailable
	}
	report = prepare(report, s.now())

	const query = `
INSERT INTO reports (
	id, file_name, industry, score, keyword_match,
	missing_keywords, skills_found, skills_missing, format_issues, suggestions, improved_bullets,
	created_at, expires_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	lists, err := marshalLists(report)
	if err != nil {
		return Report{}, err
	}
	args := []any{report.ID, report.FileName, report.Industry, report.Score, report.KeywordMatch}
	args = append(args, lists...)
	args = append(args, report.CreatedAt, report.ExpiresAt)

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return Report{}, unavailable(err)
	}
	return report, nil
}

// Get returns a live report by ID.
func (s *PGStore) Get(ctx context.Context, id string) (Report, error) {
	key, err := ValidateID(id)
	if err != nil {
		return Report{}, err
	}
	if s == nil || s.DB == nil {
		return Report{}, ErrUnavailable
	}

	const query = `
SELECT id, file_name, industry, score, keyword_match,
       missing_keywords, skills_found, skills_missing, format_issues, suggestions, improved_bullets,
       created_at, expires_at
FROM reports
WHERE id = $1 AND expires_at > $2
LIMIT 1`

	var r Report
	var missingKeywords, skillsFound, skillsMissing, formatIssues, suggestions, improvedBullets []byte
	err = s.DB.QueryRowContext(ctx, query, key, s.now().UTC()).Scan(
		&r.ID,
		&r.FileName,
		&r.Industry,
		&r.Score,
		&r.KeywordMatch,
		&missingKeywords,
		&skillsFound,
		&skillsMissing,
		&formatIssues,
		&suggestions,
		&improvedBullets,
		&r.CreatedAt,
		&r.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, unavailable(err)
	}

	for _, col := range []struct {
		raw  []byte
		dest *[]string
		name string
	}{
		{missingKeywords, &r.MissingKeywords, "missing_keywords"},
		{skillsFound, &r.SkillsFound, "skills_found"},
		{skillsMissing, &r.SkillsMissing, "skills_missing"},
		{formatIssues, &r.FormatIssues, "format_issues"},
		{suggestions, &r.Suggestions, "suggestions"},
		{improvedBullets, &r.ImprovedBullets, "improved_bullets"},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return Report{}, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	return r.withNonNilLists(), nil
}

// DeleteExpired removes reports past their retention window.
func (s *PGStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, ErrUnavailable
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM reports WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrUnavailable
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func marshalLists(r Report) ([]any, error) {
	lists := [][]string{r.MissingKeywords, r.SkillsFound, r.SkillsMissing, r.FormatIssues, r.Suggestions, r.ImprovedBullets}
	out := make([]any, 0, len(lists))
	for _, list := range lists {
		payload, err := json.Marshal(nonNil(list))
		if err != nil {
			return nil, err
		}
		out = append(out, payload)
	}
	return out, nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
