package services

import (
	"context"
	"errors"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrUnknownDocument is returned for a document id that is not on the board
var ErrUnknownDocument = errors.New("document not found")

// DocumentClient is the part of the backend used to list and decide documents
type DocumentClient interface {
	GetDocuments(ctx context.Context, patientID models.ID) ([]models.DocumentRecord, error)
	GetHospitalReports(ctx context.Context, hospitalID models.ID) ([]models.DocumentRecord, error)
	ApproveReport(ctx context.Context, patientID, documentID models.ID) error
	RejectReport(ctx context.Context, patientID, documentID models.ID) error
	FetchUserByID(ctx context.Context, id models.ID) (*models.User, error)
}

// DocumentBoard is one patient's document list as last fetched
type DocumentBoard struct {
	PatientID models.ID
	Documents []models.DocumentRecord
}

// Approved lists documents the patient accepted
func (b *DocumentBoard) Approved() []models.DocumentRecord {
	return lo.Filter(b.Documents, func(d models.DocumentRecord, _ int) bool {
		return d.IsApproved && !d.IsRejected
	})
}

// Pending lists documents awaiting a decision
func (b *DocumentBoard) Pending() []models.DocumentRecord {
	return lo.Filter(b.Documents, func(d models.DocumentRecord, _ int) bool {
		return d.IsPending()
	})
}

// Public lists what a public-access viewer may see: rejected records are hidden
func (b *DocumentBoard) Public() []models.DocumentRecord {
	return lo.Reject(b.Documents, func(d models.DocumentRecord, _ int) bool {
		return d.IsRejected
	})
}

// Search filters the approved documents by q
func (b *DocumentBoard) Search(q string) []models.DocumentRecord {
	return SearchDocuments(b.Approved(), q)
}

// Find returns the document with id
func (b *DocumentBoard) Find(id models.ID) (*models.DocumentRecord, bool) {
	for i := range b.Documents {
		if b.Documents[i].DocumentID == id {
			return &b.Documents[i], true
		}
	}
	return nil, false
}

// SearchDocuments keeps documents whose text fields or file names contain q,
// ignoring case. An empty q keeps everything.
func SearchDocuments(docs []models.DocumentRecord, q string) []models.DocumentRecord {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return docs
	}
	return lo.Filter(docs, func(d models.DocumentRecord, _ int) bool {
		fields := append([]string{d.Disease, d.HospitalName, d.DoctorName, d.Medication, d.Summary},
			lo.Map(d.FileDetails, func(f models.FileDetail, _ int) string { return f.FileName })...)
		return lo.SomeBy(fields, func(s string) bool {
			return strings.Contains(strings.ToLower(s), q)
		})
	})
}

// DocumentService loads document boards and applies approval decisions
type DocumentService struct {
	client DocumentClient
	logger *zap.SugaredLogger
}

// NewDocumentService creates a new document service
func NewDocumentService(client DocumentClient, logger *zap.SugaredLogger) *DocumentService {
	return &DocumentService{client: client, logger: logger}
}

// LoadBoard fetches a patient's documents
func (s *DocumentService) LoadBoard(ctx context.Context, patientID models.ID) (*DocumentBoard, error) {
	docs, err := s.client.GetDocuments(ctx, patientID)
	if err != nil {
		s.logger.Errorw("Failed to fetch documents", "patient_id", patientID, "error", err)
		return nil, fail(err, "Failed to fetch documents")
	}
	return &DocumentBoard{PatientID: patientID, Documents: docs}, nil
}

// Approve accepts a document and patches it on the board after the backend agrees
func (s *DocumentService) Approve(ctx context.Context, board *DocumentBoard, documentID models.ID) (*models.DocumentRecord, error) {
	return s.decide(ctx, board, documentID, true)
}

// Reject declines a document and patches it on the board after the backend agrees
func (s *DocumentService) Reject(ctx context.Context, board *DocumentBoard, documentID models.ID) (*models.DocumentRecord, error) {
	return s.decide(ctx, board, documentID, false)
}

func (s *DocumentService) decide(ctx context.Context, board *DocumentBoard, documentID models.ID, approve bool) (*models.DocumentRecord, error) {
	doc, ok := board.Find(documentID)
	if !ok {
		return nil, &Failure{Message: "Document not found", Err: ErrUnknownDocument}
	}

	action, call := "reject", s.client.RejectReport
	if approve {
		action, call = "approve", s.client.ApproveReport
	}
	// a decision is final; repeating it is allowed, reversing it is not
	switch {
	case approve && doc.IsRejected:
		return nil, invalid("Report has already been rejected")
	case !approve && doc.IsApproved:
		return nil, invalid("Report has already been approved")
	}
	if err := call(ctx, board.PatientID, documentID); err != nil {
		s.logger.Warnw("Document decision failed", "action", action, "document_id", documentID, "error", err)
		return nil, fail(err, "Failed to "+action+" report")
	}

	doc.IsApproved = approve
	doc.IsRejected = !approve
	s.logger.Infow("Document decided", "action", action, "document_id", documentID, "patient_id", board.PatientID)
	return doc, nil
}

// HospitalReports lists the records a hospital submitted
func (s *DocumentService) HospitalReports(ctx context.Context, hospitalID models.ID) ([]models.DocumentRecord, error) {
	docs, err := s.client.GetHospitalReports(ctx, hospitalID)
	if err != nil {
		s.logger.Errorw("Failed to fetch hospital reports", "hospital_id", hospitalID, "error", err)
		return nil, fail(err, "Failed to fetch reports")
	}
	return docs, nil
}

// PublicRecords loads a patient and the records visible through public access
func (s *DocumentService) PublicRecords(ctx context.Context, userID models.ID) (*models.User, []models.DocumentRecord, error) {
	if userID == "" {
		return nil, nil, invalid("Please upload a valid PEM file first")
	}
	user, err := s.client.FetchUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fail(err, "Failed to fetch user details")
	}
	board, err := s.LoadBoard(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, board.Public(), nil
}
