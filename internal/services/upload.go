package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadFailedMessage is the single notice shown for any failed upload
const UploadFailedMessage = "Failed to upload medical record. Please try again."

// SagaState is the step an upload saga has reached
type SagaState string

const (
	SagaCollecting  SagaState = "COLLECTING"
	SagaUploading   SagaState = "UPLOADING"
	SagaRegistering SagaState = "REGISTERING"
	SagaDone        SagaState = "DONE"
	SagaFailed      SagaState = "FAILED"
)

// UploadClient is the part of the backend the upload saga registers with
type UploadClient interface {
	AddPatientDocument(ctx context.Context, reg models.DocumentRegistration) (models.ID, error)
	AddHospitalRecord(ctx context.Context, reg models.DocumentRegistration) (models.ID, error)
	FetchUserByPublicKey(ctx context.Context, publicKey string) (*models.User, error)
}

// UploadSaga is the outcome of one add-record submission
type UploadSaga struct {
	ID         uuid.UUID
	State      SagaState
	Files      []models.FileProgress
	Hashes     []string // file order
	DocumentID models.ID
}

// Pinned returns the hashes stored so far, in file order
func (s *UploadSaga) Pinned() []string {
	var out []string
	for _, f := range s.Files {
		if f.Hash != "" {
			out = append(out, f.Hash)
		}
	}
	return out
}

// HospitalUploader identifies the hospital adding a record
type HospitalUploader struct {
	ID   models.ID
	Name string
}

// UploadService stores report files and registers them as one document
type UploadService struct {
	gateway storage.Gateway
	client  UploadClient
	ledger  OrphanLedger
	limit   int
	now     func() time.Time
	logger  *zap.SugaredLogger
}

// NewUploadService creates a new upload service. concurrency bounds the
// number of files pinned at once.
func NewUploadService(gateway storage.Gateway, client UploadClient, ledger OrphanLedger, concurrency int, logger *zap.SugaredLogger) *UploadService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &UploadService{
		gateway: gateway,
		client:  client,
		ledger:  ledger,
		limit:   concurrency,
		now:     time.Now,
		logger:  logger,
	}
}

// UploadPatientDocument runs the saga for a patient adding their own record
func (s *UploadService) UploadPatientDocument(ctx context.Context, patientID models.ID, p models.PendingUpload) (*UploadSaga, error) {
	if patientID == "" {
		return nil, invalid("Please log in to continue")
	}
	p = s.withDefaults(p)
	if err := p.Validate(); err != nil {
		return nil, invalid("Please fill in all fields and select at least one file")
	}

	return s.run(ctx, p, func(ctx context.Context, hashes []string) (models.ID, error) {
		reg := registration(p, hashes)
		reg.PatientID = patientID
		return s.client.AddPatientDocument(ctx, reg)
	})
}

// UploadHospitalRecord resolves the patient by public key, then runs the saga
// on behalf of the hospital
func (s *UploadService) UploadHospitalRecord(ctx context.Context, hospital HospitalUploader, publicKey string, p models.PendingUpload) (*UploadSaga, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return nil, invalid("Patient public key is required")
	}
	if strings.TrimSpace(p.HospitalName) == "" {
		p.HospitalName = hospital.Name
	}
	p = s.withDefaults(p)
	if err := p.Validate(); err != nil {
		return nil, invalid("Please fill in all fields and select at least one file")
	}

	patient, err := s.client.FetchUserByPublicKey(ctx, publicKey)
	if err != nil {
		s.logger.Warnw("Patient lookup failed", "hospital_id", hospital.ID, "error", err)
		return nil, &Failure{Message: "Failed to fetch patient details", Err: err}
	}

	s.logger.Infow("Hospital adding record", "hospital_id", hospital.ID, "patient_id", patient.ID)
	return s.run(ctx, p, func(ctx context.Context, hashes []string) (models.ID, error) {
		reg := registration(p, hashes)
		reg.PublicKey = publicKey
		reg.HospitalID = hospital.ID
		return s.client.AddHospitalRecord(ctx, reg)
	})
}

func (s *UploadService) withDefaults(p models.PendingUpload) models.PendingUpload {
	if strings.TrimSpace(p.UploadedDate) == "" {
		p.UploadedDate = s.now().Format("2006-01-02")
	}
	return p
}

func registration(p models.PendingUpload, hashes []string) models.DocumentRegistration {
	return models.DocumentRegistration{
		ReportHashes:  hashes,
		Disease:       p.Disease,
		Hospital:      p.HospitalName,
		Medication:    p.Medication,
		TreatmentDate: p.TreatmentDate,
		Summary:       p.Summary,
		DoctorName:    p.DoctorName,
		UploadedDate:  p.UploadedDate,
	}
}

// pinEvent is a status change reported by a pin task to the reducer
type pinEvent struct {
	index  int
	status models.UploadStatus
	hash   string
}

func (s *UploadService) run(ctx context.Context, p models.PendingUpload, register func(context.Context, []string) (models.ID, error)) (*UploadSaga, error) {
	saga := &UploadSaga{ID: uuid.New(), State: SagaCollecting}
	for _, f := range p.Files {
		saga.Files = append(saga.Files, models.FileProgress{Name: f.Name, Status: models.UploadPending})
	}
	log := s.logger.With("saga_id", saga.ID)

	saga.State = SagaUploading
	log.Infow("Uploading report files", "files", len(p.Files), "concurrency", s.limit)

	// Only the reducer writes to saga.Files while tasks are running.
	events := make(chan pinEvent)
	reduced := make(chan struct{})
	go func() {
		defer close(reduced)
		for ev := range events {
			saga.Files[ev.index].Status = ev.status
			if ev.hash != "" {
				saga.Files[ev.index].Hash = ev.hash
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, f := range p.Files {
		i, f := i, f
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			events <- pinEvent{index: i, status: models.UploadUploading}
			hash, err := s.gateway.Pin(gctx, f.Name, f.Data)
			if err != nil {
				events <- pinEvent{index: i, status: models.UploadError}
				return fmt.Errorf("pin %q: %w", f.Name, err)
			}
			events <- pinEvent{index: i, status: models.UploadUploaded, hash: hash}
			return nil
		})
	}
	err := g.Wait()
	close(events)
	<-reduced

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Errorw("Report upload failed", "error", err)
		return s.abort(ctx, saga, err, "upload")
	}

	saga.Hashes = saga.Pinned()
	if len(saga.Hashes) != len(p.Files) {
		err := errors.New("not every file was stored")
		log.Errorw("Report upload incomplete", "stored", len(saga.Hashes), "files", len(p.Files))
		return s.abort(ctx, saga, err, "upload")
	}

	saga.State = SagaRegistering
	id, err := register(ctx, saga.Hashes)
	if err != nil {
		log.Errorw("Document registration failed", "hashes", len(saga.Hashes), "error", err)
		return s.abort(ctx, saga, err, "register")
	}

	saga.DocumentID = id
	saga.State = SagaDone
	log.Infow("Document registered", "document_id", id, "hashes", len(saga.Hashes))
	return saga, nil
}

// abort fails the saga and records whatever was already stored
func (s *UploadService) abort(ctx context.Context, saga *UploadSaga, cause error, step string) (*UploadSaga, error) {
	saga.State = SagaFailed

	var orphans []models.OrphanedUpload
	for _, f := range saga.Files {
		if f.Hash == "" {
			continue
		}
		orphans = append(orphans, models.OrphanedUpload{
			ID:          uuid.New(),
			SagaID:      saga.ID,
			ContentHash: f.Hash,
			FileName:    f.Name,
			Reason:      step + ": " + cause.Error(),
			CreatedAt:   s.now(),
		})
	}
	if len(orphans) > 0 && s.ledger != nil {
		if err := s.ledger.Record(context.WithoutCancel(ctx), orphans); err != nil {
			s.logger.Errorw("Failed to record orphaned uploads", "saga_id", saga.ID, "count", len(orphans), "error", err)
		}
	}

	return saga, &Failure{Message: UploadFailedMessage, Err: cause}
}
