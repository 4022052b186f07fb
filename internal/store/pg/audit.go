package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wakil.app/internal/audit"
	"wakil.app/internal/ids"
)

func (s *Store) Append(ctx context.Context, e *audit.Entry) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_log(id, user_id, action, resource_type, resource_id, details, occurred_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.UserID, e.Action, e.ResourceType, e.ResourceID, details, e.OccurredAt)
	return err
}

func (s *Store) ListByUser(ctx context.Context, userID string, action audit.Action, page, limit int) (audit.Page, error) {
	if action != "" {
		return s.listPaged(ctx, `user_id=$1 and action=$2`, []any{userID, string(action)}, page, limit)
	}
	return s.listPaged(ctx, `user_id=$1`, []any{userID}, page, limit)
}

func (s *Store) ListByAction(ctx context.Context, action audit.Action, page, limit int) (audit.Page, error) {
	return s.listPaged(ctx, `action=$1`, []any{string(action)}, page, limit)
}

func (s *Store) ListByResource(ctx context.Context, resourceType, resourceID string) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, action, resource_type, resource_id, details, occurred_at
		from audit_log
		where upper(resource_type)=upper($1) and resource_id=$2
		order by occurred_at desc, id desc
	`, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) listPaged(ctx context.Context, where string, args []any, page, limit int) (audit.Page, error) {
	page, limit = audit.NormalizePage(page, limit)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from audit_log where `+where, args...).Scan(&total); err != nil {
		return audit.Page{}, err
	}

	n := len(args)
	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select id, user_id, action, resource_type, resource_id, details, occurred_at
		from audit_log
		where `+where+`
		order by occurred_at desc, id desc
		limit $%d offset $%d
	`, n+1, n+2), pageArgs...)
	if err != nil {
		return audit.Page{}, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return audit.Page{}, err
	}
	return audit.Page{
		Entries:    entries,
		Total:      total,
		PageNum:    page,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

type entryRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows entryRows) ([]audit.Entry, error) {
	var res []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &details, &e.OccurredAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
