package httpapi

import (
	"errors"
	"net/http"
	"time"

	"wakil.app/internal/audit"
	"wakil.app/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.accounts.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	// No authenticated context yet, attribute the entry explicitly.
	a.recorder.Record(r.Context(), sess.User.ID, audit.ActionCreate, "USER", sess.User.ID, map[string]any{
		"email": sess.User.Email,
	})

	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, User: sess.User})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	a.recorder.Record(r.Context(), sess.User.ID, audit.ActionLogin, "USER", sess.User.ID, map[string]any{
		"login_at": time.Now().UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, User: sess.User})
}

// Tokens are stateless, so logout only leaves an audit trail. Clients drop
// the token.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	a.audit(r.Context(), audit.ActionLogout, "USER", uid, nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := a.accounts.Me(r.Context(), uid)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
