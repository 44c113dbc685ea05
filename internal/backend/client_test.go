package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curelink/records-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient serves a single canned answer and records the request body
func newTestClient(t *testing.T, status int, body string) (*Client, *map[string]interface{}) {
	t.Helper()
	got := map[string]interface{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		got["_path"] = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, zap.NewNop().Sugar()), &got
}

func TestRegister(t *testing.T) {
	c, got := newTestClient(t, http.StatusCreated, `{"private_key":"X","qr_code":"Y","user_id":7}`)

	res, err := c.Register(context.Background(), models.PatientRegistration{FirstName: "Asha", Email: "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, "X", res.PrivateKey)
	assert.Equal(t, "Y", res.QRCode)
	assert.Equal(t, models.ID("7"), res.UserID)
	assert.Equal(t, "/register", (*got)["_path"])
	assert.Equal(t, "Asha", (*got)["firstName"])
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	c, _ := newTestClient(t, http.StatusUnauthorized, `{"error":"Invalid private key"}`)

	_, err := c.Login(context.Background(), "bad")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid private key", Message(err, "Login failed"))
}

func TestAPIErrorFallback(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, `<html>oops</html>`)

	err := c.ApproveReport(context.Background(), "1", "9")
	require.Error(t, err)
	assert.Equal(t, "Failed to approve document", Message(err, "Failed to approve document"))
}

func TestLoginWithoutUserIDIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"message":"Login successful"}`)

	_, err := c.Login(context.Background(), "key")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestLoginHospital(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"hospital":{"id":3,"name":"City Care"}}`)

	h, err := c.LoginHospital(context.Background(), "desk@citycare.in", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.ID("3"), h.ID)
	assert.Equal(t, "City Care", h.Name)
	assert.Equal(t, "/login-hospital", (*got)["_path"])
}

func TestRegisterHospitalOmitsConfirmPassword(t *testing.T) {
	c, got := newTestClient(t, http.StatusCreated, `{"id":"h-1","name":"City Care"}`)

	h, err := c.RegisterHospital(context.Background(), models.HospitalRegistration{
		Name: "City Care", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("h-1"), h.ID)
	assert.NotContains(t, *got, "confirmPassword")
	assert.NotContains(t, *got, "ConfirmPassword")
}

func TestFetchUserByIDSendsNumber(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"user":{"id":12,"first_name":"Asha","last_name":"Rao"}}`)

	u, err := c.FetchUserByID(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", u.FullName())
	assert.Equal(t, float64(12), (*got)["user_id"])
}

func TestGetDocumentsRejectsContradictoryFlags(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"documents":[{"document_id":1,"is_approved":true,"is_rejected":true}]}`)

	_, err := c.GetDocuments(context.Background(), "1")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetDocuments(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"documents":[
		{"document_id":1,"disease":"Flu","is_approved":true,"file_details":[{"file_name":"a.pdf","file_url":"https://gw/ipfs/Qm1"}]},
		{"document_id":"2","disease":"Asthma"}
	]}`)

	docs, err := c.GetDocuments(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, models.ID("1"), docs[0].DocumentID)
	assert.Equal(t, "a.pdf", docs[0].FileDetails[0].FileName)
	assert.True(t, docs[1].IsPending())
	assert.Equal(t, float64(5), (*got)["patient_id"])
}

func TestGetDocumentsEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{}`)

	docs, err := c.GetDocuments(context.Background(), "5")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestAddPatientDocument(t *testing.T) {
	c, got := newTestClient(t, http.StatusCreated, `{"document_id":44}`)

	id, err := c.AddPatientDocument(context.Background(), models.DocumentRegistration{
		PatientID:    "5",
		ReportHashes: []string{"Qm1", "Qm2"},
		Disease:      "Flu",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("44"), id)
	assert.Equal(t, "/add-patient-document", (*got)["_path"])
	assert.Equal(t, []interface{}{"Qm1", "Qm2"}, (*got)["report_hashes"])
	assert.NotContains(t, *got, "public_key")
}

func TestFetchMedicinesResultsShape(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"success":true,"results":[
		{"store":"PharmEasy","title":"Dolo 650","price":31.5,"url":"https://pharmeasy.in/x","pack_size":"15 tablets"},
		{"store":"1mg","title":"Dolo 650","price":"₹30","url":"https://1mg.com/x"}
	]}`)

	res, err := c.FetchMedicines(context.Background(), "dolo")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Quotes, 2)
	assert.Equal(t, "PharmEasy", res.Quotes[0].VendorName)
	assert.Equal(t, "31.5", res.Quotes[0].Price)
	assert.Equal(t, "₹30", res.Quotes[1].Price)
	assert.Equal(t, "dolo", (*got)["search"])
}

func TestFetchMedicinesVendorShape(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":true,
		"one_mg":{"title":"Paracetamol 500mg","price":"₹20"},
		"apollopharmacy":{"title":"Paracetamol 500","unit_size":"10","discount_price":18.4},
		"pharmeasy":{"titile":"Paracetamol","pack_size":"strip","price":19}}`)

	res, err := c.FetchMedicines(context.Background(), "paracetamol")
	require.NoError(t, err)
	require.Len(t, res.Quotes, 3)

	assert.Equal(t, models.MedicineQuote{VendorName: "1mg", Title: "Paracetamol 500mg", Price: "₹20"}, res.Quotes[0])
	assert.Equal(t, "18.4", res.Quotes[1].Price)
	assert.Equal(t, "10", res.Quotes[1].PackSize)
	assert.Equal(t, "Paracetamol", res.Quotes[2].Title)
}

func TestFetchMedicinesNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":false}`)

	res, err := c.FetchMedicines(context.Background(), "zzz")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Quotes)
}

func TestFetchMedicinesWithoutSuccessIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"results":[]}`)

	_, err := c.FetchMedicines(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPredict(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{
		"diagnosis":{"disease":"Flu"},
		"medication":{"source":"dataset","list":["Paracetamol"]},
		"medical_advice":{"description":"Viral infection","treatment":"• Rest\n• Fluids","when_to_seek_help":["High fever"],"prevention":"Wash hands"}}`)

	res, err := c.Predict(context.Background(), "fever, cough")
	require.NoError(t, err)

	assert.Equal(t, "Flu", res.Disease)
	assert.Equal(t, "high", res.Confidence)
	assert.Equal(t, []string{"Paracetamol"}, res.MedicationList)
	assert.Equal(t, models.Bullets{"Rest", "Fluids"}, res.TreatmentAdvice)
	assert.Equal(t, models.Bullets{"High fever"}, res.WhenToSeekHelp)
	assert.Equal(t, "fever, cough", (*got)["symptoms"])
	assert.Equal(t, "/api/predict", (*got)["_path"])
}

func TestPredictLegacyShape(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"Doctor":{"disease":"Migraine","recommended_medicines":["Sumatriptan"],"response":"Predicted Disease: Migraine\nRest in a dark room"}}`)

	res, err := c.Predict(context.Background(), "headache")
	require.NoError(t, err)
	assert.Equal(t, "Migraine", res.Disease)
	assert.Equal(t, []string{"Sumatriptan"}, res.MedicationList)
	assert.Len(t, res.Description, 2)
}

func TestPredictErrorField(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"error":"Input sentence is required"}`)

	_, err := c.Predict(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, "Input sentence is required", Message(err, "Prediction failed"))
}

func TestPredictWithoutDiseaseIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"diagnosis":{}}`)

	_, err := c.Predict(context.Background(), "cough")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0, zap.NewNop().Sugar())

	_, err := c.Login(context.Background(), "key")
	require.Error(t, err)
	assert.Equal(t, "Login failed", Message(err, "Login failed"))
}
