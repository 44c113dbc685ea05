package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/services"
	"go.uber.org/zap"
)

// InsightHandler serves medicine price comparison and symptom prediction
type InsightHandler struct {
	medicines   *services.MedicineService
	predictions *services.PredictionService
	render      *Renderer
	logger      *zap.SugaredLogger
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(medicines *services.MedicineService, predictions *services.PredictionService, render *Renderer, logger *zap.SugaredLogger) *InsightHandler {
	return &InsightHandler{medicines: medicines, predictions: predictions, render: render, logger: logger}
}

type medicinePage struct {
	Query  string
	Quotes []models.MedicineQuote
}

type predictPage struct {
	Symptoms string
	Result   *models.PredictionResult
}

// MedicinePage handles GET /dashboard/medicine
func (h *InsightHandler) MedicinePage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "medicine", view{Title: "Compare Medicine Prices", Data: medicinePage{}})
}

// MedicineSearch handles POST /dashboard/medicine
func (h *InsightHandler) MedicineSearch(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("search")

	set, err := h.medicines.Compare(r.Context(), query)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "medicine", view{
			Title: "Compare Medicine Prices",
			Error: services.UserMessage(err),
			Data:  medicinePage{Query: query},
		})
		return
	}

	h.render.Render(w, r, http.StatusOK, "medicine", view{
		Title: "Compare Medicine Prices",
		Data:  medicinePage{Query: set.Query, Quotes: set.SortedByPrice()},
	})
}

// PredictPage handles GET /dashboard/predict
func (h *InsightHandler) PredictPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "predict", view{Title: "Symptom Checker", Data: predictPage{}})
}

// Predict handles POST /dashboard/predict
func (h *InsightHandler) Predict(w http.ResponseWriter, r *http.Request) {
	symptoms := r.FormValue("symptoms")

	res, err := h.predictions.Predict(r.Context(), symptoms)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "predict", view{
			Title: "Symptom Checker",
			Error: services.UserMessage(err),
			Data:  predictPage{Symptoms: symptoms},
		})
		return
	}

	h.render.Render(w, r, http.StatusOK, "predict", view{Title: "Symptom Checker", Data: predictPage{Symptoms: symptoms, Result: res}})
}

// MedicinesAPI handles POST /api/v1/medicines
func (h *InsightHandler) MedicinesAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Search string `json:"search"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	set, err := h.medicines.Compare(r.Context(), req.Search)
	if err != nil {
		status := statusFor(err)
		if services.UserMessage(err) == services.MedicineNotFoundMessage {
			status = http.StatusNotFound
		}
		respondError(w, status, services.UserMessage(err))
		return
	}

	respondJSON(w, http.StatusOK, models.MedicineQuoteSet{Query: set.Query, PerVendor: set.SortedByPrice()})
}

// PredictAPI handles POST /api/v1/predict
func (h *InsightHandler) PredictAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symptoms string `json:"symptoms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.predictions.Predict(r.Context(), req.Symptoms)
	if err != nil {
		respondError(w, statusFor(err), services.UserMessage(err))
		return
	}

	respondJSON(w, http.StatusOK, res)
}
