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

// AuthHandler serves registration, login and logout for patients and hospitals
type AuthHandler struct {
	accounts *services.AccountService
	sessions *session.Manager
	render   *Renderer
	maxBytes int64
	logger   *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *services.AccountService, sessions *session.Manager, render *Renderer, maxBytes int64, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, render: render, maxBytes: maxBytes, logger: logger}
}

type registerPage struct {
	Form     models.PatientRegistration
	Key      *services.KeyMaterial
	KeyFile  string
	QRFile   string
	SignedIn bool
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "register", view{Title: "Register", Data: registerPage{}})
}

// Register handles POST /register. The key is shown in this response only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "register", view{Title: "Register", Error: "Invalid form submission", Data: registerPage{}})
		return
	}
	form := models.PatientRegistration{
		FirstName: strings.TrimSpace(r.FormValue("firstName")),
		LastName:  strings.TrimSpace(r.FormValue("lastName")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
		Age:       strings.TrimSpace(r.FormValue("age")),
		DOB:       strings.TrimSpace(r.FormValue("dob")),
		Address:   strings.TrimSpace(r.FormValue("address")),
		Aadhar:    strings.TrimSpace(r.FormValue("aadhar")),
	}

	flow := services.NewRegistrationFlow()
	if err := h.accounts.RegisterPatient(r.Context(), flow, form); err != nil {
		h.render.Render(w, r, statusFor(err), "register", view{
			Title: "Register",
			Error: services.UserMessage(err),
			Data:  registerPage{Form: form},
		})
		return
	}

	page := registerPage{KeyFile: services.KeyFileName, QRFile: services.KeyQRFileName}
	page.Key, _ = flow.Key()

	if id := flow.UserID(); id != "" {
		s := models.Session{SubjectID: id, Role: models.RolePatient}
		if err := h.sessions.Start(r.Context(), w, s); err != nil {
			h.logger.Warnw("Failed to start session after registration", "error", err)
		} else {
			page.SignedIn = true
		}
	}

	h.render.Render(w, r, http.StatusOK, "register_key", view{Title: "Save your private key", Data: page})
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "login", view{Title: "Login"})
}

// Login handles POST /login with a typed key, a key file or a QR image
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		msg := "Invalid form submission"
		if tooLarge(err) {
			msg = "File is too large"
		}
		h.render.Render(w, r, http.StatusBadRequest, "login", view{Title: "Login", Error: msg})
		return
	}

	keyFile, err := formFile(r, "key_file")
	if err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "login", view{Title: "Login", Error: "Could not read key file"})
		return
	}
	qrImage, err := formFile(r, "qr_image")
	if err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "login", view{Title: "Login", Error: "Could not read QR code. Please try again."})
		return
	}

	s, err := h.accounts.LoginPatient(r.Context(), services.KeySources{
		Text:    r.FormValue("private_key"),
		File:    keyFile,
		QRImage: qrImage,
	})
	if err != nil {
		h.render.Render(w, r, statusFor(err), "login", view{Title: "Login", Error: services.UserMessage(err)})
		return
	}

	if err := h.sessions.Start(r.Context(), w, *s); err != nil {
		h.logger.Errorw("Failed to start session", "error", err)
		h.render.Render(w, r, http.StatusInternalServerError, "login", view{Title: "Login", Error: "Login failed"})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout for both roles
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	dest := "/login"
	if s, ok := session.FromContext(r.Context()); ok && s.Role == models.RoleHospital {
		dest = "/hospital/login"
	}
	if err := h.sessions.End(w, r); err != nil {
		h.logger.Warnw("Failed to delete session", "error", err)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// HospitalLoginPage handles GET /hospital/login
func (h *AuthHandler) HospitalLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "hospital_login", view{Title: "Hospital Login"})
}

// HospitalLogin handles POST /hospital/login
func (h *AuthHandler) HospitalLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "hospital_login", view{Title: "Hospital Login", Error: "Invalid form submission"})
		return
	}
	email := r.FormValue("email")

	s, err := h.accounts.LoginHospital(r.Context(), email, r.FormValue("password"))
	if err != nil {
		h.render.Render(w, r, statusFor(err), "hospital_login", view{
			Title: "Hospital Login",
			Error: services.UserMessage(err),
			Data:  map[string]string{"Email": email},
		})
		return
	}

	if err := h.sessions.Start(r.Context(), w, *s); err != nil {
		h.logger.Errorw("Failed to start session", "error", err)
		h.render.Render(w, r, http.StatusInternalServerError, "hospital_login", view{Title: "Hospital Login", Error: "Login failed"})
		return
	}
	http.Redirect(w, r, "/hospital/dashboard", http.StatusSeeOther)
}

// HospitalRegisterPage handles GET /hospital/register
func (h *AuthHandler) HospitalRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "hospital_register", view{Title: "Register Hospital", Data: models.HospitalRegistration{}})
}

// HospitalRegister handles POST /hospital/register
func (h *AuthHandler) HospitalRegister(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "hospital_register", view{Title: "Register Hospital", Error: "Invalid form submission", Data: models.HospitalRegistration{}})
		return
	}
	form := models.HospitalRegistration{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		Phone:           strings.TrimSpace(r.FormValue("phone")),
		Address:         strings.TrimSpace(r.FormValue("address")),
		City:            strings.TrimSpace(r.FormValue("city")),
		State:           strings.TrimSpace(r.FormValue("state")),
		ZipCode:         strings.TrimSpace(r.FormValue("zipCode")),
		LicenseNumber:   strings.TrimSpace(r.FormValue("licenseNumber")),
		Description:     strings.TrimSpace(r.FormValue("description")),
	}

	if _, err := h.accounts.RegisterHospital(r.Context(), form); err != nil {
		form.Password, form.ConfirmPassword = "", ""
		h.render.Render(w, r, statusFor(err), "hospital_register", view{
			Title: "Register Hospital",
			Error: services.UserMessage(err),
			Data:  form,
		})
		return
	}

	http.Redirect(w, r, "/hospital/login?notice="+url.QueryEscape("Registration successful. Please log in."), http.StatusSeeOther)
}
