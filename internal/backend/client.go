// Package backend is the typed client of the records backend REST API.
// Every response is parsed into an explicit type at this boundary; bodies
// that do not fit fail with ErrMalformedResponse.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/curelink/records-portal/internal/models"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

// Endpoint paths
const (
	pathRegister          = "/register"
	pathRegisterHospital  = "/register-hospital"
	pathLogin             = "/login"
	pathLoginHospital     = "/login-hospital"
	pathFetchUserDetails  = "/fetch-user-details"
	pathGetDocuments      = "/get-documents"
	pathGetHospitalReport = "/get-hospital-reports"
	pathAddPatientDoc     = "/add-patient-document"
	pathHospitalUpload    = "/upload"
	pathApproveReport     = "/approve-report"
	pathRejectReport      = "/reject-report"
	pathFetchMedicines    = "/fetch-medicines"
	pathPredict           = "/api/predict"
)

// Client calls the records backend
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewClient creates a backend client. A zero timeout keeps transport defaults.
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Register creates a patient. The result may lack key material; callers decide.
func (c *Client) Register(ctx context.Context, reg models.PatientRegistration) (*models.RegistrationResult, error) {
	var res models.RegistrationResult
	if err := c.post(ctx, pathRegister, reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterHospital creates a hospital account
func (c *Client) RegisterHospital(ctx context.Context, reg models.HospitalRegistration) (*models.Hospital, error) {
	var res struct {
		models.Hospital
		Nested *models.Hospital `json:"hospital"`
	}
	if err := c.post(ctx, pathRegisterHospital, reg, &res); err != nil {
		return nil, err
	}
	h := res.Hospital
	if res.Nested != nil {
		h = *res.Nested
	}
	if h.ID == "" {
		return nil, malformed(pathRegisterHospital, "missing hospital id")
	}
	return &h, nil
}

// Login exchanges a private key for the patient's subject id
func (c *Client) Login(ctx context.Context, privateKey string) (*models.LoginResult, error) {
	var res models.LoginResult
	body := map[string]string{"private_key": privateKey}
	if err := c.post(ctx, pathLogin, body, &res); err != nil {
		return nil, err
	}
	if res.UserID == "" {
		return nil, malformed(pathLogin, "missing user_id")
	}
	return &res, nil
}

// LoginHospital authenticates a hospital by email and password
func (c *Client) LoginHospital(ctx context.Context, email, password string) (*models.Hospital, error) {
	var res struct {
		Hospital *models.Hospital `json:"hospital"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, pathLoginHospital, body, &res); err != nil {
		return nil, err
	}
	if res.Hospital == nil || res.Hospital.ID == "" {
		return nil, malformed(pathLoginHospital, "missing hospital.id")
	}
	return res.Hospital, nil
}

// FetchUserByID looks a patient up by subject id
func (c *Client) FetchUserByID(ctx context.Context, id models.ID) (*models.User, error) {
	return c.fetchUser(ctx, map[string]interface{}{"user_id": id})
}

// FetchUserByPublicKey looks a patient up by the PEM public key
func (c *Client) FetchUserByPublicKey(ctx context.Context, publicKey string) (*models.User, error) {
	return c.fetchUser(ctx, map[string]interface{}{"public_key": publicKey})
}

func (c *Client) fetchUser(ctx context.Context, body map[string]interface{}) (*models.User, error) {
	var res struct {
		User *models.User `json:"user"`
	}
	if err := c.post(ctx, pathFetchUserDetails, body, &res); err != nil {
		return nil, err
	}
	if res.User == nil || res.User.ID == "" {
		return nil, malformed(pathFetchUserDetails, "missing user.id")
	}
	return res.User, nil
}

// GetDocuments lists every document of a patient
func (c *Client) GetDocuments(ctx context.Context, patientID models.ID) ([]models.DocumentRecord, error) {
	return c.documents(ctx, pathGetDocuments, map[string]interface{}{"patient_id": patientID})
}

// GetHospitalReports lists the documents a hospital submitted
func (c *Client) GetHospitalReports(ctx context.Context, hospitalID models.ID) ([]models.DocumentRecord, error) {
	return c.documents(ctx, pathGetHospitalReport, map[string]interface{}{"hospital_id": hospitalID})
}

func (c *Client) documents(ctx context.Context, path string, body interface{}) ([]models.DocumentRecord, error) {
	var res struct {
		Documents []models.DocumentRecord `json:"documents"`
	}
	if err := c.post(ctx, path, body, &res); err != nil {
		return nil, err
	}
	for i, d := range res.Documents {
		if d.DocumentID == "" {
			return nil, malformed(path, "document %d has no document_id", i)
		}
		if d.IsApproved && d.IsRejected {
			return nil, malformed(path, "document %s is both approved and rejected", d.DocumentID)
		}
	}
	if res.Documents == nil {
		res.Documents = []models.DocumentRecord{}
	}
	return res.Documents, nil
}

// AddPatientDocument registers uploaded hashes as a patient-added document
func (c *Client) AddPatientDocument(ctx context.Context, reg models.DocumentRegistration) (models.ID, error) {
	return c.registerDocument(ctx, pathAddPatientDoc, reg)
}

// AddHospitalRecord registers a hospital-submitted record pending patient approval
func (c *Client) AddHospitalRecord(ctx context.Context, reg models.DocumentRegistration) (models.ID, error) {
	return c.registerDocument(ctx, pathHospitalUpload, reg)
}

func (c *Client) registerDocument(ctx context.Context, path string, reg models.DocumentRegistration) (models.ID, error) {
	var res struct {
		DocumentID models.ID `json:"document_id"`
	}
	if err := c.post(ctx, path, reg, &res); err != nil {
		return "", err
	}
	return res.DocumentID, nil
}

// ApproveReport accepts a pending document
func (c *Client) ApproveReport(ctx context.Context, patientID, documentID models.ID) error {
	return c.decide(ctx, pathApproveReport, patientID, documentID)
}

// RejectReport declines a pending document
func (c *Client) RejectReport(ctx context.Context, patientID, documentID models.ID) error {
	return c.decide(ctx, pathRejectReport, patientID, documentID)
}

func (c *Client) decide(ctx context.Context, path string, patientID, documentID models.ID) error {
	body := map[string]interface{}{"patient_id": patientID, "document_id": documentID}
	return c.post(ctx, path, body, nil)
}

// post sends body as JSON and decodes a 2xx answer into out (when non-nil).
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("Backend call failed", "endpoint", path, "error", err)
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", path, err)
	}

	c.logger.Debugw("Backend call",
		"endpoint", path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(path, "%v", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an error body
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
