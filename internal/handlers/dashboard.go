package handlers

import (
	"net/http"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"github.com/curelink/records-portal/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardHandler serves the patient dashboard and the approval actions
type DashboardHandler struct {
	documents *services.DocumentService
	render    *Renderer
	logger    *zap.SugaredLogger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(documents *services.DocumentService, render *Renderer, logger *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{documents: documents, render: render, logger: logger}
}

type dashboardPage struct {
	Query    string
	Approved []models.DocumentRecord
	Pending  []models.DocumentRecord
}

func boardPage(b *services.DocumentBoard, q string) dashboardPage {
	return dashboardPage{Query: q, Approved: b.Search(q), Pending: b.Pending()}
}

// Show handles GET /dashboard
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	q := r.URL.Query().Get("q")

	board, err := h.documents.LoadBoard(r.Context(), s.SubjectID)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "dashboard", view{
			Title: "Dashboard",
			Error: services.UserMessage(err),
			Data:  dashboardPage{Query: q},
		})
		return
	}

	h.render.Render(w, r, http.StatusOK, "dashboard", view{Title: "Dashboard", Data: boardPage(board, q)})
}

// Decide handles POST /dashboard/documents/{id}/{action}. The page is
// rendered from the patched board without fetching the list again.
func (h *DashboardHandler) Decide(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	action := chi.URLParam(r, "action")
	id := models.ID(chi.URLParam(r, "id"))
	q := r.FormValue("q")

	board, err := h.documents.LoadBoard(r.Context(), s.SubjectID)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "dashboard", view{Title: "Dashboard", Error: services.UserMessage(err), Data: dashboardPage{Query: q}})
		return
	}

	var notice string
	switch action {
	case "approve":
		_, err = h.documents.Approve(r.Context(), board, id)
		notice = "Report approved"
	case "reject":
		_, err = h.documents.Reject(r.Context(), board, id)
		notice = "Report rejected"
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		h.render.Render(w, r, statusFor(err), "dashboard", view{Title: "Dashboard", Error: services.UserMessage(err), Data: boardPage(board, q)})
		return
	}
	h.render.Render(w, r, http.StatusOK, "dashboard", view{Title: "Dashboard", Notice: notice, Data: boardPage(board, q)})
}

// DecideAPI handles POST /api/v1/documents/{id}/{action} and returns the patched record
func (h *DashboardHandler) DecideAPI(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	id := models.ID(chi.URLParam(r, "id"))

	board, err := h.documents.LoadBoard(r.Context(), s.SubjectID)
	if err != nil {
		respondError(w, statusFor(err), services.UserMessage(err))
		return
	}

	var doc *models.DocumentRecord
	switch chi.URLParam(r, "action") {
	case "approve":
		doc, err = h.documents.Approve(r.Context(), board, id)
	case "reject":
		doc, err = h.documents.Reject(r.Context(), board, id)
	default:
		respondError(w, http.StatusNotFound, "Unknown action")
		return
	}
	if err != nil {
		respondError(w, statusFor(err), services.UserMessage(err))
		return
	}

	respondJSON(w, http.StatusOK, doc)
}
