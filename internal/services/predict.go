package services

import (
	"context"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"go.uber.org/zap"
)

// PredictionService turns free-text symptoms into a suggested diagnosis
type PredictionService struct {
	client InsightClient
	logger *zap.SugaredLogger
}

// NewPredictionService creates a new prediction service
func NewPredictionService(client InsightClient, logger *zap.SugaredLogger) *PredictionService {
	return &PredictionService{client: client, logger: logger}
}

// Predict asks the model about symptoms
func (s *PredictionService) Predict(ctx context.Context, symptoms string) (*models.PredictionResult, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, invalid("Please describe your symptoms")
	}

	res, err := s.client.Predict(ctx, symptoms)
	if err != nil {
		s.logger.Warnw("Prediction failed", "error", err)
		return nil, fail(err, "Failed to get prediction. Please try again.")
	}

	s.logger.Infow("Prediction served", "disease", res.Disease, "confidence", res.Confidence)
	return res, nil
}
