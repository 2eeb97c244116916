package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/identity"
	"github.com/ashureev/hms-console/internal/reconcile"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/ashureev/hms-console/internal/views"
	"github.com/go-chi/chi/v5"
)

const (
	defaultTransitionLimit = 50
	maxTransitionLimit     = 500
	maxBodyBytes           = 1 << 16
)

// ConsoleHandler serves the session, view and mutation endpoints.
type ConsoleHandler struct {
	*Handler
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(base *Handler) *ConsoleHandler {
	return &ConsoleHandler{Handler: base}
}

// RegisterRoutes registers console routes.
func (h *ConsoleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Post("/session/refresh", h.RefreshSession)
		r.Get("/views/{view}", h.GetView)
		r.Put("/appointments/{id}/status", h.UpdateStatus)
		r.Get("/appointments/{id}/transitions", h.ListTransitions)
	})
}

// GetSession returns the current session.
func (h *ConsoleHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.gate.Current())
}

// RefreshSession asks the backend for the operator again.
func (h *ConsoleHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		Error(w, http.StatusNotImplemented, "session refresh unavailable")
		return
	}
	s := h.resolver.Resolve(r.Context())
	h.gate.Set(s)
	JSON(w, http.StatusOK, s)
}

// GetView activates a view for the requesting tab and returns its model.
func (h *ConsoleHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name, err := views.ParseName(chi.URLParam(r, "view"))
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}

	tabID := identity.TabIDFromContext(r.Context())
	v, err := h.registry.Activate(r.Context(), tabID, name)
	if err != nil {
		var redirect *views.RedirectError
		if errors.As(err, &redirect) {
			Redirect(w, redirect.To)
			return
		}
		h.logger.Error("View activation failed", "view", name, "tab_id", tabID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load view")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"view":  v.Name(),
		"model": v.Model(),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus runs a status change against the tab's active dashboard.
func (h *ConsoleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := session.Check(h.gate.Current()); err != nil {
		Redirect(w, session.LoginPath)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tabID := identity.TabIDFromContext(r.Context())
	dash, err := h.registry.Dashboard(tabID)
	if err != nil {
		Error(w, http.StatusConflict, "dashboard is not open in this tab")
		return
	}

	// A confirmed change must still be merged if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	out := dash.UpdateStatus(ctx, chi.URLParam(r, "id"), status)

	code := http.StatusOK
	if !out.Applied {
		code = http.StatusBadGateway
	}
	JSON(w, code, updateStatusResponse{Outcome: out, Model: dash.DashboardModel()})
}

type updateStatusResponse struct {
	Outcome reconcile.Outcome    `json:"outcome"`
	Model   views.DashboardModel `json:"model"`
}

// ListTransitions returns the audit history for one appointment.
func (h *ConsoleHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	if err := session.Check(h.gate.Current()); err != nil {
		Redirect(w, session.LoginPath)
		return
	}

	limit := defaultTransitionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxTransitionLimit)
	}

	key := chi.URLParam(r, "id")
	transitions, err := h.journal.ListTransitions(r.Context(), key, limit)
	if err != nil {
		h.logger.Error("Failed to list transitions", "key", key, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}
	if transitions == nil {
		transitions = []*domain.Transition{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"transitions": transitions})
}
