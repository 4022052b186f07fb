package httpapi

import (
	"net/http"
	"strings"

	"wakil.app/internal/audit"
)

// handleAuditLogs pages the caller's own audit trail, optionally narrowed to
// one action kind.
func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := parsePositiveInt(q.Get("page"), 1, 1, 1<<30)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := parsePositiveInt(q.Get("limit"), 10, 1, 100)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	var action audit.Action
	if raw := strings.TrimSpace(q.Get("action")); raw != "" {
		action = audit.Action(strings.ToUpper(raw))
		if !action.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown action")
			return
		}
	}

	result, err := a.audits.ListByUser(r.Context(), uid, action, page, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if result.Entries == nil {
		result.Entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAuditResource lists the full history of one resource, newest-first.
// Path shape: /v1/audit/resources/{type}/{id}.
func (a *API) handleAuditResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := callerID(w, r); !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/audit/resources/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	entries, err := a.audits.ListByResource(r.Context(), parts[0], parts[1])
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
