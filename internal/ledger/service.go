package ledger

import (
	"context"
	"sync"
	"time"

	"wakil.app/internal/ids"
)

// Service defines balance and transaction operations for one user ledger.
type Service interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Deduct(ctx context.Context, userID string, amount int64) (int64, error)
	Add(ctx context.Context, userID string, amount int64) (int64, error)
	CreateTransaction(ctx context.Context, userID string, amount, credits int64) (Transaction, error)
	CompleteTransaction(ctx context.Context, id, paymentID string) (Transaction, error)
	FailTransaction(ctx context.Context, id, reason string) (Transaction, error)
	History(ctx context.Context, userID string, limit int, beforeSeq uint64) ([]Transaction, uint64, error)
}

// InMemory implements Service with in-process concurrency safety. It trusts
// the caller to have resolved user identity (unknown users start at zero),
// which makes it a drop-in double for the Postgres store in tests and dev
// runs without a DSN.
type InMemory struct {
	mu       sync.Mutex
	balances map[string]int64
	seq      uint64
	txs      map[string]*Transaction
	byUser   map[string][]*Transaction
	now      func() time.Time
}

// NewInMemory creates an empty ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		balances: make(map[string]int64),
		txs:      make(map[string]*Transaction),
		byUser:   make(map[string][]*Transaction),
		now:      time.Now,
	}
}

func (s *InMemory) Balance(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *InMemory) Deduct(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < amount {
		return s.balances[userID], ErrInsufficientCredits
	}
	s.balances[userID] -= amount
	return s.balances[userID], nil
}

func (s *InMemory) Add(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *InMemory) CreateTransaction(ctx context.Context, userID string, amount, credits int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if credits <= 0 {
		return Transaction{}, ErrInvalidCredits
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now().UTC()
	tx := &Transaction{
		ID:        ids.New(),
		UserID:    userID,
		Amount:    amount,
		Credits:   credits,
		Status:    StatusPending,
		Sequence:  s.seq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.txs[tx.ID] = tx
	s.byUser[userID] = append(s.byUser[userID], tx)
	return *tx, nil
}

func (s *InMemory) CompleteTransaction(ctx context.Context, id, paymentID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	switch tx.Status {
	case StatusCompleted:
		// Idempotent replay: credits were applied exactly once already.
		return *tx, nil
	case StatusFailed:
		return Transaction{}, ErrInvalidTransition
	case StatusPending:
	}

	// Status flip and balance credit happen under the same lock so a crash
	// between them cannot be observed by another goroutine.
	tx.Status = StatusCompleted
	tx.PaymentID = paymentID
	tx.UpdatedAt = s.now().UTC()
	s.balances[tx.UserID] += tx.Credits
	return *tx, nil
}

func (s *InMemory) FailTransaction(ctx context.Context, id, reason string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	switch tx.Status {
	case StatusFailed:
		return *tx, nil
	case StatusCompleted:
		return Transaction{}, ErrInvalidTransition
	case StatusPending:
	}

	tx.Status = StatusFailed
	tx.Reason = reason
	tx.UpdatedAt = s.now().UTC()
	return *tx, nil
}

func (s *InMemory) History(ctx context.Context, userID string, limit int, beforeSeq uint64) ([]Transaction, uint64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	var res []Transaction
	var next uint64
	// byUser is append-ordered, so walk backwards for newest-first.
	for i := len(list) - 1; i >= 0; i-- {
		tx := list[i]
		if beforeSeq != 0 && tx.Sequence >= beforeSeq {
			continue
		}
		res = append(res, *tx)
		next = tx.Sequence
		if len(res) >= limit {
			break
		}
	}
	if len(res) < limit {
		next = 0
	}
	return res, next, nil
}
