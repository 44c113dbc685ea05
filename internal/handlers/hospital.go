package handlers

import (
	"net/http"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"github.com/curelink/records-portal/internal/session"
	"go.uber.org/zap"
)

// HospitalHandler serves the hospital dashboard and submitted-records list
type HospitalHandler struct {
	documents *services.DocumentService
	render    *Renderer
	logger    *zap.SugaredLogger
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(documents *services.DocumentService, render *Renderer, logger *zap.SugaredLogger) *HospitalHandler {
	return &HospitalHandler{documents: documents, render: render, logger: logger}
}

type recordsPage struct {
	Query   string
	Records []models.DocumentRecord
}

// Dashboard handles GET /hospital/dashboard
func (h *HospitalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "hospital_dashboard", view{Title: "Hospital Dashboard"})
}

// Records handles GET /hospital/view-records
func (h *HospitalHandler) Records(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	q := r.URL.Query().Get("q")

	docs, err := h.documents.HospitalReports(r.Context(), s.SubjectID)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "hospital_records", view{Title: "Submitted Records", Error: services.UserMessage(err), Data: recordsPage{Query: q}})
		return
	}

	h.render.Render(w, r, http.StatusOK, "hospital_records", view{
		Title: "Submitted Records",
		Data:  recordsPage{Query: q, Records: services.SearchDocuments(docs, q)},
	})
}
