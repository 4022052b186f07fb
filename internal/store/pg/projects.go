package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"wakil.app/internal/ids"
	"wakil.app/internal/project"
)

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	if err := project.ValidateTitle(p.Title); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into projects(id, user_id, title, description)
		values ($1,$2,$3,$4)
		returning created_at, updated_at
	`, p.ID, p.UserID, strings.TrimSpace(p.Title), p.Description).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return project.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, title, description, created_at, updated_at
		from projects
		where user_id=$1
		order by created_at desc, id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []project.Project
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, userID, id string) (project.Project, error) {
	var p project.Project
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, title, description, created_at, updated_at
		from projects
		where id=$1 and user_id=$2
	`, id, userID).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, userID, id string, upd project.Update) (project.Project, error) {
	if upd.Title != nil {
		if err := project.ValidateTitle(*upd.Title); err != nil {
			return project.Project{}, err
		}
	}

	var title, description sql.NullString
	if upd.Title != nil {
		title = sql.NullString{String: strings.TrimSpace(*upd.Title), Valid: true}
	}
	if upd.Description != nil {
		description = sql.NullString{String: *upd.Description, Valid: true}
	}

	var p project.Project
	err := s.db.QueryRowContext(ctx, `
		update projects
		set title = coalesce($3, title),
		    description = coalesce($4, description),
		    updated_at = now()
		where id=$1 and user_id=$2
		returning id, user_id, title, description, created_at, updated_at
	`, id, userID, title, description).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from projects where id=$1 and user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return project.ErrNotFound
	}
	return nil
}
