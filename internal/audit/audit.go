package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"wakil.app/internal/ids"
)

// Action is the kind of operation recorded in the audit log.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"
)

// Valid reports whether a is one of the known action kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// Entry is one immutable audit record: who did what to which resource and
// when. Entries are append-only; nothing in the service updates or deletes
// them.
type Entry struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Action       Action         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Page wraps a paged listing result.
type Page struct {
	Entries    []Entry `json:"logs"`
	Total      int     `json:"total"`
	PageNum    int     `json:"page"`
	TotalPages int     `json:"total_pages"`
}

// Store persists audit entries.
type Store interface {
	// ListByUser pages one user's entries newest-first. A non-empty action
	// narrows the listing to that action kind.
	Append(ctx context.Context, e *Entry) error
	ListByUser(ctx context.Context, userID string, action Action, page, limit int) (Page, error)
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]Entry, error)
	ListByAction(ctx context.Context, action Action, page, limit int) (Page, error)
}

// MemStore is an in-process Store used by tests and DSN-less dev runs.
type MemStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Append(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *MemStore) ListByUser(ctx context.Context, userID string, action Action, page, limit int) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.filter(func(e Entry) bool {
		return e.UserID == userID && (action == "" || e.Action == action)
	}), page, limit), nil
}

func (s *MemStore) ListByResource(ctx context.Context, resourceType, resourceID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(e Entry) bool {
		return strings.EqualFold(e.ResourceType, resourceType) && e.ResourceID == resourceID
	}), nil
}

func (s *MemStore) ListByAction(ctx context.Context, action Action, page, limit int) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.filter(func(e Entry) bool { return e.Action == action }), page, limit), nil
}

// filter returns matching entries newest-first.
func (s *MemStore) filter(keep func(Entry) bool) []Entry {
	var res []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if keep(s.entries[i]) {
			res = append(res, s.entries[i])
		}
	}
	return res
}

func paginate(all []Entry, page, limit int) Page {
	page, limit = NormalizePage(page, limit)
	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return Page{
		Entries:    all[start:end],
		Total:      total,
		PageNum:    page,
		TotalPages: (total + limit - 1) / limit,
	}
}

// NormalizePage clamps paging parameters to sane defaults.
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit
}
