package handlers

import (
	"net/http"
	"net/url"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"go.uber.org/zap"
)

// PublicHandler lets anyone holding a patient's public key view their records
type PublicHandler struct {
	accounts  *services.AccountService
	documents *services.DocumentService
	render    *Renderer
	maxBytes  int64
	logger    *zap.SugaredLogger
}

// NewPublicHandler creates a new public access handler
func NewPublicHandler(accounts *services.AccountService, documents *services.DocumentService, render *Renderer, maxBytes int64, logger *zap.SugaredLogger) *PublicHandler {
	return &PublicHandler{accounts: accounts, documents: documents, render: render, maxBytes: maxBytes, logger: logger}
}

type publicPage struct {
	User    *models.User
	Records []models.DocumentRecord
}

// Form handles GET /public-access
func (h *PublicHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "public_access", view{Title: "Public Access"})
}

// Lookup handles POST /public-access with a pasted or uploaded PEM public key
func (h *PublicHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "public_access", view{Title: "Public Access", Error: formError(err)})
		return
	}
	publicKey := r.FormValue("public_key")
	if pem, err := formFile(r, "pem_file"); err == nil && len(pem) > 0 {
		publicKey = string(pem)
	}

	user, err := h.accounts.LookupPublicKey(r.Context(), publicKey)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "public_access", view{Title: "Public Access", Error: services.UserMessage(err)})
		return
	}

	http.Redirect(w, r, "/public-access/dashboard?user_id="+url.QueryEscape(user.ID.String()), http.StatusSeeOther)
}

// Dashboard handles GET /public-access/dashboard?user_id=
func (h *PublicHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := models.ID(r.URL.Query().Get("user_id"))

	user, docs, err := h.documents.PublicRecords(r.Context(), userID)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "public_dashboard", view{Title: "Patient Records", Error: services.UserMessage(err), Data: publicPage{}})
		return
	}

	h.render.Render(w, r, http.StatusOK, "public_dashboard", view{Title: "Patient Records", Data: publicPage{User: user, Records: docs}})
}
