package backend

import (
	"context"
	"net/http"

	"github.com/curelink/records-portal/internal/models"
)

type predictResponse struct {
	Error     string `json:"error"`
	Diagnosis *struct {
		Disease    string `json:"disease"`
		Confidence text   `json:"confidence"`
	} `json:"diagnosis"`
	Medication *struct {
		Source string   `json:"source"`
		List   []string `json:"list"`
	} `json:"medication"`
	MedicalAdvice *struct {
		Description    models.Bullets `json:"description"`
		Treatment      models.Bullets `json:"treatment"`
		WhenToSeekHelp models.Bullets `json:"when_to_seek_help"`
		Prevention     models.Bullets `json:"prevention"`
	} `json:"medical_advice"`

	// Shape of the first inference service
	Doctor *struct {
		Disease              string   `json:"disease"`
		RecommendedMedicines []string `json:"recommended_medicines"`
		Response             string   `json:"response"`
	} `json:"Doctor"`
}

// Predict asks the inference endpoint for a diagnosis of free-text symptoms
func (c *Client) Predict(ctx context.Context, symptoms string) (*models.PredictionResult, error) {
	var res predictResponse
	if err := c.post(ctx, pathPredict, map[string]string{"symptoms": symptoms}, &res); err != nil {
		return nil, err
	}
	return res.toResult()
}

func (r predictResponse) toResult() (*models.PredictionResult, error) {
	if r.Error != "" {
		return nil, &APIError{Endpoint: pathPredict, Status: http.StatusOK, Message: r.Error}
	}

	if r.Doctor != nil && r.Diagnosis == nil {
		if r.Doctor.Disease == "" {
			return nil, malformed(pathPredict, "missing Doctor.disease")
		}
		return &models.PredictionResult{
			Disease:          r.Doctor.Disease,
			Confidence:       "high",
			MedicationSource: "model",
			MedicationList:   r.Doctor.RecommendedMedicines,
			Description:      models.SplitBullets(r.Doctor.Response),
		}, nil
	}

	if r.Diagnosis == nil || r.Diagnosis.Disease == "" {
		return nil, malformed(pathPredict, "missing diagnosis.disease")
	}

	out := &models.PredictionResult{
		Disease:    r.Diagnosis.Disease,
		Confidence: string(r.Diagnosis.Confidence),
	}
	if out.Confidence == "" {
		out.Confidence = "high"
	}
	if r.Medication != nil {
		out.MedicationSource = r.Medication.Source
		out.MedicationList = r.Medication.List
	}
	if a := r.MedicalAdvice; a != nil {
		out.Description = a.Description
		out.TreatmentAdvice = a.Treatment
		out.WhenToSeekHelp = a.WhenToSeekHelp
		out.PreventionTips = a.Prevention
	}
	return out, nil
}
