package pg

import (
	"context"
	"database/sql"
	"errors"

	"wakil.app/internal/ids"
	"wakil.app/internal/ledger"
)

func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := s.db.QueryRowContext(ctx, `select credits from users where id=$1`, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return credits, nil
}

func (s *Store) Deduct(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock serializes concurrent balance mutations for this user.
	var credits int64
	err = tx.QueryRowContext(ctx, `select credits from users where id=$1 for update`, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if credits < amount {
		return credits, ledger.ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx, `
		update users set credits = credits - $2, updated_at = now() where id=$1
	`, userID, amount); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return credits - amount, nil
}

func (s *Store) Add(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}

	var credits int64
	err := s.db.QueryRowContext(ctx, `
		update users set credits = credits + $2, updated_at = now()
		where id=$1
		returning credits
	`, userID, amount).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return credits, nil
}

func (s *Store) CreateTransaction(ctx context.Context, userID string, amount, credits int64) (ledger.Transaction, error) {
	if amount <= 0 {
		return ledger.Transaction{}, ledger.ErrInvalidAmount
	}
	if credits <= 0 {
		return ledger.Transaction{}, ledger.ErrInvalidCredits
	}

	t := ledger.Transaction{
		ID:      ids.New(),
		UserID:  userID,
		Amount:  amount,
		Credits: credits,
		Status:  ledger.StatusPending,
	}
	err := s.db.QueryRowContext(ctx, `
		insert into transactions(id, user_id, amount, credits, status)
		values ($1,$2,$3,$4,$5)
		returning seq, created_at, updated_at
	`, t.ID, userID, amount, credits, t.Status).Scan(&t.Sequence, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ledger.Transaction{}, ledger.ErrNotFound
		}
		return ledger.Transaction{}, err
	}
	return t, nil
}

// CompleteTransaction flips PENDING to COMPLETED and credits the owner's
// balance inside one database transaction, so a crash between the two writes
// cannot leave an under- or double-credited user. Completing an already
// completed transaction is an idempotent replay.
func (s *Store) CompleteTransaction(ctx context.Context, id, paymentID string) (ledger.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := lockTransaction(ctx, tx, id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	switch t.Status {
	case ledger.StatusCompleted:
		return t, nil
	case ledger.StatusFailed:
		return ledger.Transaction{}, ledger.ErrInvalidTransition
	case ledger.StatusPending:
	}

	if err := tx.QueryRowContext(ctx, `
		update transactions set status=$2, payment_id=$3, updated_at=now()
		where id=$1
		returning updated_at
	`, id, ledger.StatusCompleted, paymentID).Scan(&t.UpdatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		update users set credits = credits + $2, updated_at = now() where id=$1
	`, t.UserID, t.Credits); err != nil {
		return ledger.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Transaction{}, err
	}

	t.Status = ledger.StatusCompleted
	t.PaymentID = paymentID
	return t, nil
}

func (s *Store) FailTransaction(ctx context.Context, id, reason string) (ledger.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := lockTransaction(ctx, tx, id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	switch t.Status {
	case ledger.StatusFailed:
		return t, nil
	case ledger.StatusCompleted:
		return ledger.Transaction{}, ledger.ErrInvalidTransition
	case ledger.StatusPending:
	}

	if err := tx.QueryRowContext(ctx, `
		update transactions set status=$2, reason=$3, updated_at=now()
		where id=$1
		returning updated_at
	`, id, ledger.StatusFailed, reason).Scan(&t.UpdatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Transaction{}, err
	}

	t.Status = ledger.StatusFailed
	t.Reason = reason
	return t, nil
}

func (s *Store) History(ctx context.Context, userID string, limit int, beforeSeq uint64) ([]ledger.Transaction, uint64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, amount, credits, status, coalesce(payment_id,''), coalesce(reason,''), seq, created_at, updated_at
		from transactions
		where user_id=$1 and ($2 = 0 or seq < $2)
		order by seq desc
		limit $3
	`, userID, beforeSeq, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(res) == limit {
		next = res[len(res)-1].Sequence
	}
	return res, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Credits, &t.Status,
		&t.PaymentID, &t.Reason, &t.Sequence, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func lockTransaction(ctx context.Context, tx *sql.Tx, id string) (ledger.Transaction, error) {
	t, err := scanTransaction(tx.QueryRowContext(ctx, `
		select id, user_id, amount, credits, status, coalesce(payment_id,''), coalesce(reason,''), seq, created_at, updated_at
		from transactions where id=$1 for update
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}
