package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/curelink/records-portal/internal/backend"
	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/storage"
	"go.uber.org/zap"
)

var (
	_ AccountClient   = (*MockBackend)(nil)
	_ UploadClient    = (*MockBackend)(nil)
	_ DocumentClient  = (*MockBackend)(nil)
	_ InsightClient   = (*MockBackend)(nil)
	_ storage.Gateway = (*MockGateway)(nil)
	_ OrphanLedger    = (*MockLedger)(nil)
)

var errNotMocked = errors.New("not implemented in mock")

// MockBackend fakes the records backend. Calls counts every method call.
type MockBackend struct {
	RegisterFunc             func(ctx context.Context, reg models.PatientRegistration) (*models.RegistrationResult, error)
	RegisterHospitalFunc     func(ctx context.Context, reg models.HospitalRegistration) (*models.Hospital, error)
	LoginFunc                func(ctx context.Context, privateKey string) (*models.LoginResult, error)
	LoginHospitalFunc        func(ctx context.Context, email, password string) (*models.Hospital, error)
	FetchUserByIDFunc        func(ctx context.Context, id models.ID) (*models.User, error)
	FetchUserByPublicKeyFunc func(ctx context.Context, publicKey string) (*models.User, error)
	GetDocumentsFunc         func(ctx context.Context, patientID models.ID) ([]models.DocumentRecord, error)
	GetHospitalReportsFunc   func(ctx context.Context, hospitalID models.ID) ([]models.DocumentRecord, error)
	AddPatientDocumentFunc   func(ctx context.Context, reg models.DocumentRegistration) (models.ID, error)
	AddHospitalRecordFunc    func(ctx context.Context, reg models.DocumentRegistration) (models.ID, error)
	ApproveReportFunc        func(ctx context.Context, patientID, documentID models.ID) error
	RejectReportFunc         func(ctx context.Context, patientID, documentID models.ID) error
	FetchMedicinesFunc       func(ctx context.Context, query string) (*backend.MedicineSearch, error)
	PredictFunc              func(ctx context.Context, symptoms string) (*models.PredictionResult, error)

	Calls int32
}

func (m *MockBackend) Register(ctx context.Context, reg models.PatientRegistration) (*models.RegistrationResult, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	return nil, errNotMocked
}

func (m *MockBackend) RegisterHospital(ctx context.Context, reg models.HospitalRegistration) (*models.Hospital, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.RegisterHospitalFunc != nil {
		return m.RegisterHospitalFunc(ctx, reg)
	}
	return nil, errNotMocked
}

func (m *MockBackend) Login(ctx context.Context, privateKey string) (*models.LoginResult, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, privateKey)
	}
	return nil, errNotMocked
}

func (m *MockBackend) LoginHospital(ctx context.Context, email, password string) (*models.Hospital, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.LoginHospitalFunc != nil {
		return m.LoginHospitalFunc(ctx, email, password)
	}
	return nil, errNotMocked
}

func (m *MockBackend) FetchUserByID(ctx context.Context, id models.ID) (*models.User, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.FetchUserByIDFunc != nil {
		return m.FetchUserByIDFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *MockBackend) FetchUserByPublicKey(ctx context.Context, publicKey string) (*models.User, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.FetchUserByPublicKeyFunc != nil {
		return m.FetchUserByPublicKeyFunc(ctx, publicKey)
	}
	return nil, errNotMocked
}

func (m *MockBackend) GetDocuments(ctx context.Context, patientID models.ID) ([]models.DocumentRecord, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.GetDocumentsFunc != nil {
		return m.GetDocumentsFunc(ctx, patientID)
	}
	return nil, errNotMocked
}

func (m *MockBackend) GetHospitalReports(ctx context.Context, hospitalID models.ID) ([]models.DocumentRecord, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.GetHospitalReportsFunc != nil {
		return m.GetHospitalReportsFunc(ctx, hospitalID)
	}
	return nil, errNotMocked
}

func (m *MockBackend) AddPatientDocument(ctx context.Context, reg models.DocumentRegistration) (models.ID, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.AddPatientDocumentFunc != nil {
		return m.AddPatientDocumentFunc(ctx, reg)
	}
	return "", errNotMocked
}

func (m *MockBackend) AddHospitalRecord(ctx context.Context, reg models.DocumentRegistration) (models.ID, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.AddHospitalRecordFunc != nil {
		return m.AddHospitalRecordFunc(ctx, reg)
	}
	return "", errNotMocked
}

func (m *MockBackend) ApproveReport(ctx context.Context, patientID, documentID models.ID) error {
	atomic.AddInt32(&m.Calls, 1)
	if m.ApproveReportFunc != nil {
		return m.ApproveReportFunc(ctx, patientID, documentID)
	}
	return errNotMocked
}

func (m *MockBackend) RejectReport(ctx context.Context, patientID, documentID models.ID) error {
	atomic.AddInt32(&m.Calls, 1)
	if m.RejectReportFunc != nil {
		return m.RejectReportFunc(ctx, patientID, documentID)
	}
	return errNotMocked
}

func (m *MockBackend) FetchMedicines(ctx context.Context, query string) (*backend.MedicineSearch, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.FetchMedicinesFunc != nil {
		return m.FetchMedicinesFunc(ctx, query)
	}
	return nil, errNotMocked
}

func (m *MockBackend) Predict(ctx context.Context, symptoms string) (*models.PredictionResult, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, symptoms)
	}
	return nil, errNotMocked
}

func (m *MockBackend) CallCount() int {
	return int(atomic.LoadInt32(&m.Calls))
}

// MockGateway fakes file storage
type MockGateway struct {
	PinFunc func(ctx context.Context, name string, data []byte) (string, error)

	Calls int32
}

func (m *MockGateway) Pin(ctx context.Context, name string, data []byte) (string, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.PinFunc != nil {
		return m.PinFunc(ctx, name, data)
	}
	return "Qm" + name, nil
}

func (m *MockGateway) CallCount() int {
	return int(atomic.LoadInt32(&m.Calls))
}

// MockLedger keeps recorded orphans in memory
type MockLedger struct {
	mu      sync.Mutex
	orphans []models.OrphanedUpload
}

func (m *MockLedger) Record(_ context.Context, orphans []models.OrphanedUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans = append(m.orphans, orphans...)
	return nil
}

func (m *MockLedger) Orphans() []models.OrphanedUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrphanedUpload(nil), m.orphans...)
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
