package services

import (
	"context"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"go.uber.org/zap"
)

// AccountClient is the part of the backend used for registration and login
type AccountClient interface {
	Register(ctx context.Context, reg models.PatientRegistration) (*models.RegistrationResult, error)
	RegisterHospital(ctx context.Context, reg models.HospitalRegistration) (*models.Hospital, error)
	Login(ctx context.Context, privateKey string) (*models.LoginResult, error)
	LoginHospital(ctx context.Context, email, password string) (*models.Hospital, error)
	FetchUserByPublicKey(ctx context.Context, publicKey string) (*models.User, error)
}

// AccountService handles registration, login and public-key lookups
type AccountService struct {
	client AccountClient
	logger *zap.SugaredLogger
}

// NewAccountService creates a new account service
func NewAccountService(client AccountClient, logger *zap.SugaredLogger) *AccountService {
	return &AccountService{client: client, logger: logger}
}

// RegisterPatient submits the form and, on success, reveals the key in flow.
// Without key material in the answer the flow stays in FORM.
func (s *AccountService) RegisterPatient(ctx context.Context, flow *RegistrationFlow, form models.PatientRegistration) error {
	if flow.State() == StateKeyRevealed {
		return ErrAlreadyRevealed
	}
	if blank(form.FirstName, form.LastName, form.Email, form.Phone) {
		return invalid("First name, last name, email, and phone are required")
	}

	res, err := s.client.Register(ctx, form)
	if err != nil {
		s.logger.Warnw("Patient registration failed", "error", err)
		return fail(err, "Registration failed")
	}
	if res.PrivateKey == "" {
		msg := res.Message
		if msg == "" {
			msg = "Registration failed"
		}
		s.logger.Warnw("Registration answer carried no key material", "user_id", res.UserID)
		return &Failure{Message: msg}
	}

	if err := flow.reveal(res); err != nil {
		return err
	}
	s.logger.Infow("Patient registered", "user_id", res.UserID, "qr", res.QRCode != "")
	return nil
}

// RegisterHospital validates both form steps and creates the hospital account
func (s *AccountService) RegisterHospital(ctx context.Context, form models.HospitalRegistration) (*models.Hospital, error) {
	if blank(form.Name, form.Email, form.Password, form.Phone) {
		return nil, invalid("Please fill all required fields")
	}
	if form.Password != form.ConfirmPassword {
		return nil, invalid("Passwords do not match")
	}
	if blank(form.Address, form.City, form.State, form.ZipCode, form.LicenseNumber) {
		return nil, invalid("Please fill all required fields")
	}

	h, err := s.client.RegisterHospital(ctx, form)
	if err != nil {
		s.logger.Warnw("Hospital registration failed", "error", err)
		return nil, fail(err, "Registration failed. Please try again.")
	}
	s.logger.Infow("Hospital registered", "hospital_id", h.ID)
	return h, nil
}

// LoginPatient sends the key from exactly one source and returns the session to start
func (s *AccountService) LoginPatient(ctx context.Context, src KeySources) (*models.Session, error) {
	key, err := src.Resolve()
	if err != nil {
		return nil, err
	}

	res, err := s.client.Login(ctx, key)
	if err != nil {
		s.logger.Infow("Patient login rejected", "source", src.Kind(), "error", err)
		return nil, fail(err, "Login failed")
	}

	s.logger.Infow("Patient logged in", "user_id", res.UserID, "source", src.Kind())
	return &models.Session{SubjectID: res.UserID, Role: models.RolePatient}, nil
}

// LoginHospital authenticates a hospital and returns the session to start
func (s *AccountService) LoginHospital(ctx context.Context, email, password string) (*models.Session, error) {
	if blank(email, password) {
		return nil, invalid("Please fill in all fields")
	}

	h, err := s.client.LoginHospital(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Infow("Hospital login rejected", "error", err)
		return nil, fail(err, "Login failed")
	}

	s.logger.Infow("Hospital logged in", "hospital_id", h.ID)
	return &models.Session{SubjectID: h.ID, Role: models.RoleHospital, HospitalName: h.Name}, nil
}

// LookupPublicKey resolves a patient from the PEM public key (public access)
func (s *AccountService) LookupPublicKey(ctx context.Context, publicKey string) (*models.User, error) {
	if strings.TrimSpace(publicKey) == "" {
		return nil, invalid("Please upload a valid PEM file first")
	}
	u, err := s.client.FetchUserByPublicKey(ctx, publicKey)
	if err != nil {
		return nil, fail(err, "Failed to fetch user details")
	}
	return u, nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
