package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"github.com/curelink/records-portal/internal/session"
	"go.uber.org/zap"
)

// UploadHandler serves the add-record forms of patients and hospitals
type UploadHandler struct {
	uploads  *services.UploadService
	render   *Renderer
	maxBytes int64
	logger   *zap.SugaredLogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *services.UploadService, render *Renderer, maxBytes int64, logger *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{uploads: uploads, render: render, maxBytes: maxBytes, logger: logger}
}

type uploadPage struct {
	Form      models.PendingUpload
	PublicKey string
	Files     []models.FileProgress
}

// PatientForm handles GET /dashboard/upload
func (h *UploadHandler) PatientForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "upload", view{Title: "Add Medical Record", Data: uploadPage{}})
}

// PatientSubmit handles POST /dashboard/upload
func (h *UploadHandler) PatientSubmit(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	p, err := h.pendingUpload(w, r)
	if err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "upload", view{Title: "Add Medical Record", Error: formError(err), Data: uploadPage{Form: p}})
		return
	}

	saga, err := h.uploads.UploadPatientDocument(r.Context(), s.SubjectID, p)
	if err != nil {
		page := uploadPage{Form: withoutFiles(p)}
		if saga != nil {
			page.Files = saga.Files
		}
		h.render.Render(w, r, statusFor(err), "upload", view{Title: "Add Medical Record", Error: services.UserMessage(err), Data: page})
		return
	}

	http.Redirect(w, r, "/dashboard?notice="+url.QueryEscape("Medical record uploaded successfully"), http.StatusSeeOther)
}

// HospitalForm handles GET /hospital/add-record
func (h *UploadHandler) HospitalForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "hospital_add_record", view{Title: "Add Patient Record", Data: uploadPage{}})
}

// HospitalSubmit handles POST /hospital/add-record. The patient is named by
// a pasted public key or an uploaded .pem file.
func (h *UploadHandler) HospitalSubmit(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	p, err := h.pendingUpload(w, r)
	if err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "hospital_add_record", view{Title: "Add Patient Record", Error: formError(err), Data: uploadPage{Form: p}})
		return
	}
	publicKey := r.FormValue("public_key")
	if pem, err := formFile(r, "public_key_file"); err == nil && len(pem) > 0 {
		publicKey = string(pem)
	}

	uploader := services.HospitalUploader{ID: s.SubjectID, Name: s.HospitalName}
	saga, err := h.uploads.UploadHospitalRecord(r.Context(), uploader, publicKey, p)
	if err != nil {
		page := uploadPage{Form: withoutFiles(p), PublicKey: publicKey}
		if saga != nil {
			page.Files = saga.Files
		}
		h.render.Render(w, r, statusFor(err), "hospital_add_record", view{Title: "Add Patient Record", Error: services.UserMessage(err), Data: page})
		return
	}

	http.Redirect(w, r, "/hospital/view-records?notice="+url.QueryEscape("Medical record uploaded successfully"), http.StatusSeeOther)
}

func (h *UploadHandler) pendingUpload(w http.ResponseWriter, r *http.Request) (models.PendingUpload, error) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		return models.PendingUpload{}, err
	}

	p := models.PendingUpload{
		Disease:       strings.TrimSpace(r.FormValue("disease")),
		HospitalName:  strings.TrimSpace(r.FormValue("hospital")),
		Medication:    strings.TrimSpace(r.FormValue("medication")),
		TreatmentDate: strings.TrimSpace(r.FormValue("treatment_date")),
		DoctorName:    strings.TrimSpace(r.FormValue("doctor_name")),
		Summary:       strings.TrimSpace(r.FormValue("summary")),
		UploadedDate:  strings.TrimSpace(r.FormValue("uploaded_date")),
	}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			data, err := readPart(fh)
			if err != nil {
				return p, err
			}
			p.Files = append(p.Files, models.UploadFile{Name: fh.Filename, Data: data})
		}
	}
	return p, nil
}

func withoutFiles(p models.PendingUpload) models.PendingUpload {
	p.Files = nil
	return p
}

func formError(err error) string {
	if tooLarge(err) {
		return "Files are too large"
	}
	return "Invalid form submission"
}
