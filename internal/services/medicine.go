package services

import (
	"context"
	"strings"

	"github.com/curelink/records-portal/internal/backend"
	"github.com/curelink/records-portal/internal/models"
	"go.uber.org/zap"
)

// MedicineNotFoundMessage is shown when no vendor offers the medicine
const MedicineNotFoundMessage = "Please enter correct medicine name"

// InsightClient is the part of the backend used for price search and prediction
type InsightClient interface {
	FetchMedicines(ctx context.Context, query string) (*backend.MedicineSearch, error)
	Predict(ctx context.Context, symptoms string) (*models.PredictionResult, error)
}

// MedicineService compares medicine prices across pharmacy vendors
type MedicineService struct {
	client InsightClient
	logger *zap.SugaredLogger
}

// NewMedicineService creates a new medicine service
func NewMedicineService(client InsightClient, logger *zap.SugaredLogger) *MedicineService {
	return &MedicineService{client: client, logger: logger}
}

// Compare searches every vendor for query. Results are fetched fresh each time.
func (s *MedicineService) Compare(ctx context.Context, query string) (*models.MedicineQuoteSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Please enter a medicine name")
	}

	res, err := s.client.FetchMedicines(ctx, query)
	if err != nil {
		s.logger.Warnw("Medicine search failed", "query", query, "error", err)
		return nil, fail(err, "Failed to fetch medicine prices. Please try again.")
	}
	if !res.Success || len(res.Quotes) == 0 {
		return nil, &Failure{Message: MedicineNotFoundMessage}
	}

	s.logger.Infow("Medicine prices fetched", "query", query, "vendors", len(res.Quotes))
	return &models.MedicineQuoteSet{Query: query, PerVendor: res.Quotes}, nil
}
