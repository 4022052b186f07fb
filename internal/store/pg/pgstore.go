package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"wakil.app/internal/audit"
	"wakil.app/internal/auth"
	"wakil.app/internal/ids"
	"wakil.app/internal/ledger"
	"wakil.app/internal/project"
)

// Store is the durable backend for users, projects, the credit ledger and
// the audit log. One explicitly constructed handle is injected into every
// service that needs persistence.
type Store struct {
	db *sql.DB
}

var (
	_ ledger.Service = (*Store)(nil)
	_ auth.UserStore = (*Store)(nil)
	_ project.Store  = (*Store)(nil)
	_ audit.Store    = (*Store)(nil)
)

// Open connects to PostgreSQL with tuned pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by sqlmock tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// --- user store -----------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users(id, email, name, password_hash)
		values ($1,$2,$3,$4)
		returning credits, created_at, updated_at
	`, u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash)
	if err := row.Scan(&u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, credits, created_at, updated_at
		from users where id=$1
	`, id))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, credits, created_at, updated_at
		from users where email=$1
	`, strings.ToLower(email)))
}

func (s *Store) scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- helpers --------------------------------------------------------------

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
