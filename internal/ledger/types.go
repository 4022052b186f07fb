package ledger

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a credit purchase transaction.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPending:
		return false
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Transaction records one attempted credit purchase. Amount is money in
// minor units (no floats), Credits is the quantity purchased. A transaction
// is created PENDING and moves exactly once to a terminal state.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Credits   int64     `json:"credits"`
	Status    Status    `json:"status"`
	PaymentID string    `json:"payment_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("invalid amount (must be > 0)")
	ErrInvalidCredits      = errors.New("invalid credits (must be > 0)")
	ErrInvalidTransition   = errors.New("transaction already in a terminal state")
)
