package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/curelink/records-portal/internal/backend"
	"github.com/curelink/records-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareParacetamol(t *testing.T) {
	mock := &MockBackend{
		FetchMedicinesFunc: func(_ context.Context, q string) (*backend.MedicineSearch, error) {
			assert.Equal(t, "paracetamol", q)
			return &backend.MedicineSearch{Success: true, Quotes: []models.MedicineQuote{
				{VendorName: "1mg", Title: "Paracetamol 500mg", Price: "₹20", URL: "https://example.com/p"},
			}}, nil
		},
	}
	set, err := NewMedicineService(mock, nopLogger()).Compare(context.Background(), "  paracetamol ")

	require.NoError(t, err)
	require.Len(t, set.PerVendor, 1)
	assert.Equal(t, "Paracetamol 500mg", set.PerVendor[0].Title)
	assert.Equal(t, "₹20", set.PerVendor[0].Price)
}

func TestCompareNotFound(t *testing.T) {
	mock := &MockBackend{
		FetchMedicinesFunc: func(context.Context, string) (*backend.MedicineSearch, error) {
			return &backend.MedicineSearch{Success: false}, nil
		},
	}
	_, err := NewMedicineService(mock, nopLogger()).Compare(context.Background(), "xyzzy")
	assert.Equal(t, MedicineNotFoundMessage, UserMessage(err))
}

func TestCompareEmptyQueryMakesNoCall(t *testing.T) {
	mock := &MockBackend{}
	_, err := NewMedicineService(mock, nopLogger()).Compare(context.Background(), "   ")

	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, mock.CallCount())
}

func TestPredictFlu(t *testing.T) {
	mock := &MockBackend{
		PredictFunc: func(_ context.Context, symptoms string) (*models.PredictionResult, error) {
			assert.Equal(t, "fever and cough", symptoms)
			return &models.PredictionResult{Disease: "Flu", Confidence: "high", MedicationList: []string{"Paracetamol"}}, nil
		},
	}
	res, err := NewPredictionService(mock, nopLogger()).Predict(context.Background(), "fever and cough")

	require.NoError(t, err)
	assert.Equal(t, "Flu", res.Disease)
	assert.Equal(t, []string{"Paracetamol"}, res.MedicationList)
}

func TestPredictErrorPanel(t *testing.T) {
	mock := &MockBackend{
		PredictFunc: func(context.Context, string) (*models.PredictionResult, error) {
			return nil, &backend.APIError{Endpoint: "/api/predict", Status: http.StatusOK, Message: "Model unavailable"}
		},
	}
	svc := NewPredictionService(mock, nopLogger())

	_, err := svc.Predict(context.Background(), "headache")
	assert.Equal(t, "Model unavailable", UserMessage(err))

	_, err = svc.Predict(context.Background(), "")
	assert.True(t, IsValidation(err))
	assert.Equal(t, 1, mock.CallCount())
}
