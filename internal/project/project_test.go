package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRUDLifecycle(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	p := &Project{UserID: "u1", Title: "Lease agreement", Description: "Q3 renewal"}
	require.NoError(t, s.CreateProject(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.GetProject(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lease agreement", got.Title)

	title := "Lease agreement v2"
	updated, err := s.UpdateProject(ctx, "u1", p.ID, Update{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Q3 renewal", updated.Description)

	require.NoError(t, s.DeleteProject(ctx, "u1", p.ID))
	_, err = s.GetProject(ctx, "u1", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerScoping(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	p := &Project{UserID: "owner", Title: "Confidential"}
	require.NoError(t, s.CreateProject(ctx, p))

	_, err := s.GetProject(ctx, "intruder", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteProject(ctx, "intruder", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListProjects(ctx, "intruder")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListNewestFirst(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateProject(ctx, &Project{UserID: "u1", Title: title}))
	}

	list, err := s.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestTitleValidation(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	err := s.CreateProject(ctx, &Project{UserID: "u1", Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
