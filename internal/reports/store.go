package reports

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists reports keyed by a generated UUID.
type Store interface {
	// Save assigns ID, CreatedAt and ExpiresAt when empty and writes the report once.
	Save(ctx context.Context, report Report) (Report, error)
	Get(ctx context.Context, id string) (Report, error)
	// DeleteExpired removes every report whose ExpiresAt is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateID returns the canonical form of id or ErrInvalidID.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) != 36 {
		return "", ErrInvalidID
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

func prepare(report Report, now time.Time) Report {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now.UTC()
	}
	if report.ExpiresAt.IsZero() {
		report.ExpiresAt = report.CreatedAt.Add(Retention)
	}
	return report.withNonNilLists()
}
