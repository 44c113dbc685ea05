package handlers

import (
	"net/http"
	"time"

	"github.com/curelink/records-portal/internal/middleware"
	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"github.com/curelink/records-portal/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the services and settings the router wires together
type Deps struct {
	Accounts    *services.AccountService
	Documents   *services.DocumentService
	Uploads     *services.UploadService
	Medicines   *services.MedicineService
	Predictions *services.PredictionService
	Sessions    *session.Manager
	DB          Pinger // optional

	AllowedOrigins []string
	RateLimitRPM   int
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter builds the portal's routes
func NewRouter(d Deps) (http.Handler, error) {
	sugar := d.Logger.Sugar()

	render, err := NewRenderer(sugar)
	if err != nil {
		return nil, err
	}

	auth := NewAuthHandler(d.Accounts, d.Sessions, render, d.MaxUploadBytes, sugar)
	dashboard := NewDashboardHandler(d.Documents, render, sugar)
	upload := NewUploadHandler(d.Uploads, render, d.MaxUploadBytes, sugar)
	insight := NewInsightHandler(d.Medicines, d.Predictions, render, sugar)
	hospital := NewHospitalHandler(d.Documents, render, sugar)
	public := NewPublicHandler(d.Accounts, d.Documents, render, d.MaxUploadBytes, sugar)
	health := NewHealthHandler(d.DB, d.Sessions.Store(), sugar)

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(d.RateLimitRPM))
	r.Use(middleware.LoadSession(d.Sessions))

	// Public pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, http.StatusOK, "home", view{Title: "CureLink"})
	})
	r.Get("/login", auth.LoginPage)
	r.Post("/login", auth.Login)
	r.Get("/register", auth.RegisterPage)
	r.Post("/register", auth.Register)
	r.Post("/logout", auth.Logout)

	r.Get("/public-access", public.Form)
	r.Post("/public-access", public.Lookup)
	r.Get("/public-access/dashboard", public.Dashboard)

	// Patient pages
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RolePatient, "/login"))
		r.Get("/", dashboard.Show)
		r.Post("/documents/{id}/{action}", dashboard.Decide)
		r.Get("/upload", upload.PatientForm)
		r.Post("/upload", upload.PatientSubmit)
		r.Get("/medicine", insight.MedicinePage)
		r.Post("/medicine", insight.MedicineSearch)
		r.Get("/predict", insight.PredictPage)
		r.Post("/predict", insight.Predict)
	})

	// Hospital pages
	r.Route("/hospital", func(r chi.Router) {
		r.Get("/login", auth.HospitalLoginPage)
		r.Post("/login", auth.HospitalLogin)
		r.Get("/register", auth.HospitalRegisterPage)
		r.Post("/register", auth.HospitalRegister)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleHospital, "/hospital/login"))
			r.Get("/dashboard", hospital.Dashboard)
			r.Get("/add-record", upload.HospitalForm)
			r.Post("/add-record", upload.HospitalSubmit)
			r.Get("/view-records", hospital.Records)
		})
	})

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Get("/health", health.Check)
		r.Get("/health/ready", health.Ready)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPISession(models.RolePatient))
			r.Post("/documents/{id}/{action}", dashboard.DecideAPI)
			r.Post("/medicines", insight.MedicinesAPI)
			r.Post("/predict", insight.PredictAPI)
		})
	})

	return r, nil
}
