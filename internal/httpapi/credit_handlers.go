package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wakil.app/internal/audit"
	"wakil.app/internal/ledger"
	"wakil.app/internal/obs"
	"wakil.app/internal/stream"
)

type purchaseRequest struct {
	Amount  int64 `json:"amount"`
	Credits int64 `json:"credits"`
}

type deductRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"credits"`
}

type listTransactionsResponse struct {
	Items      []ledger.Transaction `json:"items"`
	NextBefore uint64               `json:"next_before"`
	AsOf       time.Time            `json:"as_of"`
}

func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	balance, err := a.ledger.Balance(r.Context(), uid)
	obs.CountLedgerOp("balance", err)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{UserID: uid, Balance: balance})
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var before uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("before")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "before must be a non-negative integer")
			return
		}
		before = v
	}

	items, next, err := a.ledger.History(r.Context(), uid, limit, before)
	obs.CountLedgerOp("history", err)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listTransactionsResponse{
		Items:      items,
		NextBefore: next,
		AsOf:       time.Now().UTC(),
	})
}

// handlePurchase creates a PENDING transaction and settles it through the
// simulated payment provider in the same request. Real providers would
// complete asynchronously through a webhook calling the same transitions.
func (a *API) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := a.ledger.CreateTransaction(r.Context(), uid, req.Amount, req.Credits)
	obs.CountLedgerOp("create_transaction", err)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	paymentID := "sim_" + uuid.NewString()
	done, err := a.ledger.CompleteTransaction(r.Context(), tx.ID, paymentID)
	obs.CountLedgerOp("complete_transaction", err)
	if err != nil {
		if failed, ferr := a.ledger.FailTransaction(r.Context(), tx.ID, err.Error()); ferr == nil {
			a.publish(stream.EventPurchaseFailed, uid, failed.Credits, 0, failed.ID)
		}
		a.audit(r.Context(), audit.ActionUpdate, "TRANSACTION", tx.ID, map[string]any{
			"status": string(ledger.StatusFailed),
			"reason": err.Error(),
		})
		handleLedgerError(w, r, err)
		return
	}

	balance, _ := a.ledger.Balance(r.Context(), uid)
	a.publish(stream.EventPurchaseCompleted, uid, done.Credits, balance, done.ID)

	a.audit(r.Context(), audit.ActionCreate, "TRANSACTION", done.ID, map[string]any{
		"amount":     done.Amount,
		"credits":    done.Credits,
		"payment_id": done.PaymentID,
	})

	writeJSON(w, http.StatusCreated, done)
}

func (a *API) handleDeduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req deductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		writeError(w, r, http.StatusBadRequest, "reason is required")
		return
	}

	balance, err := a.ledger.Deduct(r.Context(), uid, req.Amount)
	obs.CountLedgerOp("deduct", err)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	a.publish(stream.EventCreditsDeducted, uid, req.Amount, balance, "")

	a.audit(r.Context(), audit.ActionUpdate, "CREDITS", uid, map[string]any{
		"amount":  req.Amount,
		"reason":  reason,
		"balance": balance,
	})

	writeJSON(w, http.StatusOK, balanceResponse{UserID: uid, Balance: balance})
}

func (a *API) publish(kind stream.EventType, userID string, credits, balance int64, txID string) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(stream.Event{
		Type:          kind,
		UserID:        userID,
		Credits:       credits,
		Balance:       balance,
		TransactionID: txID,
		Timestamp:     time.Now().UTC(),
	})
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < min || val > max {
		return 0, errors.New("limit out of range")
	}
	return val, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidCredits):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientCredits):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
