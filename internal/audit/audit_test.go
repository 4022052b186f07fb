package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wakil.app/internal/auth"
	"wakil.app/internal/obs"
)

func TestRecorderWritesEntryAndLogLine(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	store := NewMemStore()
	rec := NewRecorder(store)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithUserID(ctx, "user-42")

	rec.Record(ctx, "", ActionCreate, "PROJECT", "p1", map[string]any{"title": "NDA review"})

	page, err := store.ListByUser(ctx, "user-42", "", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(page.Entries))
	}
	entry := page.Entries[0]
	if entry.Action != ActionCreate || entry.ResourceType != "PROJECT" || entry.ResourceID != "p1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.OccurredAt.IsZero() {
		t.Fatal("missing timestamp")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if line["type"] != "audit" {
		t.Fatalf("unexpected type: %v", line["type"])
	}
	if line["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", line["request_id"])
	}
	if line["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", line["user_id"])
	}
}

func TestRecorderActorFallback(t *testing.T) {
	store := NewMemStore()
	rec := NewRecorder(store)

	// No authenticated user in context: the explicit id wins.
	rec.Record(context.Background(), "signup-user", ActionLogin, "USER", "signup-user", nil)

	page, _ := store.ListByUser(context.Background(), "signup-user", "", 1, 10)
	if len(page.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(page.Entries))
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, *Entry) error { return errors.New("store down") }
func (failingStore) ListByUser(context.Context, string, Action, int, int) (Page, error) {
	return Page{}, nil
}
func (failingStore) ListByResource(context.Context, string, string) ([]Entry, error) {
	return nil, nil
}
func (failingStore) ListByAction(context.Context, Action, int, int) (Page, error) {
	return Page{}, nil
}

func TestRecorderSwallowsStoreFailure(t *testing.T) {
	rec := NewRecorder(failingStore{})
	// Must not panic or propagate; failure is only logged and counted.
	rec.Record(context.Background(), "u1", ActionUpdate, "PROJECT", "p1", nil)
}

func TestMemStoreFiltersAndPaging(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		entry := &Entry{UserID: "u1", Action: ActionRead, ResourceType: "PROJECT", ResourceID: "p1"}
		if i%3 == 0 {
			entry.Action = ActionUpdate
		}
		if err := store.Append(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	page, err := store.ListByUser(ctx, "u1", "", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 15 || page.TotalPages != 2 || len(page.Entries) != 10 {
		t.Fatalf("unexpected page: total=%d pages=%d len=%d", page.Total, page.TotalPages, len(page.Entries))
	}

	second, _ := store.ListByUser(ctx, "u1", "", 2, 10)
	if len(second.Entries) != 5 {
		t.Fatalf("expected 5 entries on page 2, got %d", len(second.Entries))
	}

	filtered, err := store.ListByUser(ctx, "u1", ActionUpdate, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Total != 5 {
		t.Fatalf("expected 5 filtered entries, got %d", filtered.Total)
	}

	updates, err := store.ListByAction(ctx, ActionUpdate, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if updates.Total != 5 {
		t.Fatalf("expected 5 UPDATE entries, got %d", updates.Total)
	}

	byRes, err := store.ListByResource(ctx, "project", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byRes) != 15 {
		t.Fatalf("expected 15 entries for resource, got %d", len(byRes))
	}
	for i := 1; i < len(byRes); i++ {
		if byRes[i].OccurredAt.After(byRes[i-1].OccurredAt) {
			t.Fatal("entries not newest-first")
		}
	}
}
