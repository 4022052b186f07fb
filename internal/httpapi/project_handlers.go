package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"wakil.app/internal/audit"
	"wakil.app/internal/project"
)

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (a *API) handleProjectsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProject(w, r)
	case http.MethodGet:
		a.listProjects(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getProject(w, r, id)
	case http.MethodPut:
		a.updateProject(w, r, id)
	case http.MethodDelete:
		a.deleteProject(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if err := project.ValidateTitle(title); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p := &project.Project{
		UserID:      uid,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
	}
	if err := a.projects.CreateProject(r.Context(), p); err != nil {
		handleProjectError(w, r, err)
		return
	}

	a.audit(r.Context(), audit.ActionCreate, "PROJECT", p.ID, map[string]any{
		"title": p.Title,
	})

	w.Header().Set("Location", "/v1/projects/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	items, err := a.projects.ListProjects(r.Context(), uid)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	if items == nil {
		items = []project.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getProject(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	p, err := a.projects.GetProject(r.Context(), uid, id)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}

	a.audit(r.Context(), audit.ActionRead, "PROJECT", p.ID, nil)
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updateProject(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil && req.Description == nil {
		writeError(w, r, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if err := project.ValidateTitle(trimmed); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Title = &trimmed
	}

	p, err := a.projects.UpdateProject(r.Context(), uid, id, project.Update{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleProjectError(w, r, err)
		return
	}

	a.audit(r.Context(), audit.ActionUpdate, "PROJECT", p.ID, map[string]any{
		"title": p.Title,
	})
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deleteProject(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := a.projects.DeleteProject(r.Context(), uid, id); err != nil {
		handleProjectError(w, r, err)
		return
	}

	a.audit(r.Context(), audit.ActionDelete, "PROJECT", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func handleProjectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
