package reports

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSaveAssignsIdentity(t *testing.T) {
	store := NewMemoryStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	saved, err := store.Save(context.Background(), Report{FileName: "cv.pdf", Industry: "Finance", Score: 70})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := ValidateID(saved.ID); err != nil {
		t.Fatalf("expected UUID id, got %q", saved.ID)
	}
	if !saved.CreatedAt.Equal(fixed) || !saved.ExpiresAt.Equal(fixed.Add(Retention)) {
		t.Fatalf("unexpected timestamps: %v %v", saved.CreatedAt, saved.ExpiresAt)
	}
	if saved.Suggestions == nil || saved.ImprovedBullets == nil {
		t.Fatalf("expected non-nil lists")
	}

	got, err := store.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != "cv.pdf" || got.Score != 70 {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestMemoryStoreGetErrors(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := store.Get(context.Background(), "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiredIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }
	saved, err := store.Save(context.Background(), Report{FileName: "cv.docx", Industry: "IT"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	store.now = func() time.Time { return created.Add(Retention - time.Second) }
	if _, err := store.Get(context.Background(), saved.ID); err != nil {
		t.Fatalf("expected report alive before retention, got %v", err)
	}

	store.now = func() time.Time { return created.Add(Retention) }
	if _, err := store.Get(context.Background(), saved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after retention, got %v", err)
	}
}

func TestMemoryStoreDeleteExpired(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	store.now = func() time.Time { return base }
	old, _ := store.Save(ctx, Report{FileName: "old.pdf"})
	store.now = func() time.Time { return base.Add(20 * 24 * time.Hour) }
	fresh, _ := store.Save(ctx, Report{FileName: "fresh.pdf"})

	removed, err := store.DeleteExpired(ctx, base.Add(Retention+time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	store.now = func() time.Time { return base.Add(Retention + time.Hour) }
	if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old report gone, got %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("expected fresh report kept, got %v", err)
	}
}

func TestValidateIDCanonicalizes(t *testing.T) {
	got, err := ValidateID(" 7B0C8F9E-2F4A-4B59-9A64-3F1D8F0A1C22 ")
	if err != nil {
		t.Fatalf("ValidateID: %v", err)
	}
	if got != "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22" {
		t.Fatalf("unexpected canonical id: %s", got)
	}
	for _, bad := range []string{"", "123", "urn:uuid:7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1c22", "7b0c8f9e-2f4a-4b59-9a64-3f1d8f0a1cZZ"} {
		if _, err := ValidateID(bad); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID for %q, got %v", bad, err)
		}
	}
}
