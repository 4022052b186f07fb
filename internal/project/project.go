package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wakil.app/internal/ids"
)

var (
	ErrNotFound     = errors.New("project: not found")
	ErrInvalidInput = errors.New("project: invalid input")
)

// Project is a user-owned workspace for a legal matter. All operations are
// scoped to the owning user; there is no sharing model.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update carries optional field changes; nil pointers leave fields untouched.
type Update struct {
	Title       *string
	Description *string
}

// Store persists projects.
type Store interface {
	CreateProject(ctx context.Context, p *Project) error
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	GetProject(ctx context.Context, userID, id string) (Project, error)
	UpdateProject(ctx context.Context, userID, id string, upd Update) (Project, error)
	DeleteProject(ctx context.Context, userID, id string) error
}

// ValidateTitle rejects empty or oversized titles before hitting the store.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > 200 {
		return fmt.Errorf("%w: title too long", ErrInvalidInput)
	}
	return nil
}

// MemStore is an in-process Store used by tests and DSN-less dev runs.
type MemStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
	order    []string
}

func NewMemStore() *MemStore {
	return &MemStore{projects: make(map[string]*Project)}
}

func (s *MemStore) CreateProject(ctx context.Context, p *Project) error {
	if err := ValidateTitle(p.Title); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.projects[p.ID] = &cp
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemStore) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Project
	// newest first
	for i := len(s.order) - 1; i >= 0; i-- {
		p := s.projects[s.order[i]]
		if p != nil && p.UserID == userID {
			res = append(res, *p)
		}
	}
	return res, nil
}

func (s *MemStore) GetProject(ctx context.Context, userID, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return Project{}, ErrNotFound
	}
	return *p, nil
}

func (s *MemStore) UpdateProject(ctx context.Context, userID, id string, upd Update) (Project, error) {
	if upd.Title != nil {
		if err := ValidateTitle(*upd.Title); err != nil {
			return Project{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return Project{}, ErrNotFound
	}
	if upd.Title != nil {
		p.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *MemStore) DeleteProject(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(s.projects, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
