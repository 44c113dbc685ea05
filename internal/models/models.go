// Package models defines the data structures exchanged with the records
// backend and rendered by the portal pages.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is a backend identifier. The backend emits ids as JSON numbers or strings.
type ID string

// UnmarshalJSON accepts `12`, `"12"` and `null`.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as JSON numbers, the form the backend issues them in.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Int returns the numeric form of the id when it has one.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

func (id ID) String() string { return string(id) }

// Role distinguishes patient and hospital sessions
type Role string

const (
	RolePatient  Role = "patient"
	RoleHospital Role = "hospital"
)

// Session is the server-side identity behind the session cookie.
// It holds only opaque identifiers, never key material.
type Session struct {
	SubjectID    ID        `json:"subject_id"`
	Role         Role      `json:"role"`
	HospitalName string    `json:"hospital_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PatientRegistration is the register form and request body
type PatientRegistration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Age       string `json:"age"`
	DOB       string `json:"dob"`
	Address   string `json:"address"`
	Aadhar    string `json:"aadhar"`
}

// RegistrationResult is the register response. PrivateKey is only ever
// handed to a KeyMaterial holder.
type RegistrationResult struct {
	PrivateKey string `json:"private_key"`
	QRCode     string `json:"qr_code"` // base64 PNG
	UserID     ID     `json:"user_id"`
	Message    string `json:"message"`
}

// HospitalRegistration is the hospital register form; ConfirmPassword stays local
type HospitalRegistration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zipCode"`
	LicenseNumber   string `json:"licenseNumber"`
	Description     string `json:"description"`
}

// Hospital as returned by hospital login and registration
type Hospital struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// LoginResult is the patient login response
type LoginResult struct {
	UserID  ID     `json:"user_id"`
	Message string `json:"message"`
}

// User is the projection returned by fetch-user-details
type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	PublicKey string `json:"public_key"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// FileDetail points at one stored report file
type FileDetail struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

// DocumentRecord is a read-only projection of a backend document.
// IsApproved and IsRejected are mutually exclusive.
type DocumentRecord struct {
	DocumentID     ID           `json:"document_id"`
	Disease        string       `json:"disease"`
	HospitalName   string       `json:"hospital_name"`
	DoctorName     string       `json:"doctor_name"`
	Medication     string       `json:"medication"`
	TreatmentDate  string       `json:"treatment_date"`
	Summary        string       `json:"summary"`
	UploadedDate   string       `json:"uploaded_date"`
	AddedByPatient bool         `json:"added_by_patient"`
	IsApproved     bool         `json:"is_approved"`
	IsRejected     bool         `json:"is_rejected"`
	FileDetails    []FileDetail `json:"file_details"`
}

// IsPending reports a record that is neither approved nor rejected
func (d DocumentRecord) IsPending() bool {
	return !d.IsApproved && !d.IsRejected
}

// Status is the display label of the approval state
func (d DocumentRecord) Status() string {
	switch {
	case d.IsApproved:
		return "approved"
	case d.IsRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// UploadFile is one selected file of a PendingUpload
type UploadFile struct {
	Name string
	Data []byte
}

// PendingUpload is the add-record form before submission
type PendingUpload struct {
	Files         []UploadFile
	Disease       string
	HospitalName  string
	Medication    string
	TreatmentDate string
	DoctorName    string
	Summary       string
	UploadedDate  string
}

// ErrIncompleteUpload is returned by PendingUpload.Validate
var ErrIncompleteUpload = errors.New("upload needs every field and at least one file")

// Validate requires every metadata field and at least one non-empty file
func (p PendingUpload) Validate() error {
	if len(p.Files) == 0 {
		return ErrIncompleteUpload
	}
	for _, f := range p.Files {
		if len(f.Data) == 0 {
			return ErrIncompleteUpload
		}
	}
	for _, v := range []string{p.Disease, p.HospitalName, p.Medication, p.TreatmentDate, p.DoctorName, p.Summary, p.UploadedDate} {
		if strings.TrimSpace(v) == "" {
			return ErrIncompleteUpload
		}
	}
	return nil
}

// DocumentRegistration is the "add patient document" / hospital "upload" body
type DocumentRegistration struct {
	PatientID     ID       `json:"patient_id,omitempty"`
	PublicKey     string   `json:"public_key,omitempty"`
	HospitalID    ID       `json:"hospital_id,omitempty"`
	ReportHashes  []string `json:"report_hashes"`
	Disease       string   `json:"disease"`
	Hospital      string   `json:"hospital"`
	Medication    string   `json:"medication"`
	TreatmentDate string   `json:"treatment_date"`
	Summary       string   `json:"summary"`
	DoctorName    string   `json:"doctor_name"`
	UploadedDate  string   `json:"uploaded_date"`
}

// UploadStatus is the per-file badge of an upload saga
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadError     UploadStatus = "error"
)

// FileProgress is one row of the per-file status list
type FileProgress struct {
	Name   string       `json:"name"`
	Status UploadStatus `json:"status"`
	Hash   string       `json:"hash,omitempty"`
}

// OrphanedUpload is a content hash pinned by a saga that never registered it
type OrphanedUpload struct {
	ID          uuid.UUID `json:"id"`
	SagaID      uuid.UUID `json:"saga_id"`
	ContentHash string    `json:"content_hash"`
	FileName    string    `json:"file_name"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// MedicineQuote is one vendor's offer
type MedicineQuote struct {
	VendorName         string `json:"store"`
	Title              string `json:"title"`
	PackSize           string `json:"pack_size"`
	Price              string `json:"price"`
	OriginalPrice      string `json:"original_price,omitempty"`
	DiscountPercentage string `json:"discount_percentage,omitempty"`
	URL                string `json:"url"`
}

// MedicineQuoteSet is the result of one price search; never cached
type MedicineQuoteSet struct {
	Query     string          `json:"query"`
	PerVendor []MedicineQuote `json:"per_vendor"`
}

// SortedByPrice returns the quotes cheapest first for display. Quotes whose
// price cannot be read go last; ties keep their order.
func (s MedicineQuoteSet) SortedByPrice() []MedicineQuote {
	out := append([]MedicineQuote(nil), s.PerVendor...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, okI := ParsePrice(out[i].Price)
		pj, okJ := ParsePrice(out[j].Price)
		if okI != okJ {
			return okI
		}
		return okI && pi < pj
	})
	return out
}

// ParsePrice reads the first number in text like "₹20" or "MRP ₹ 1,250.50"
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.' && b.Len() > 0:
			b.WriteRune(r)
		case r == ',' && b.Len() > 0:
		default:
			if b.Len() > 0 {
				return parseAmount(b.String())
			}
		}
	}
	return parseAmount(b.String())
}

func parseAmount(s string) (float64, bool) {
	s = strings.Trim(s, ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// PredictionResult is the rendered symptom-checker answer
type PredictionResult struct {
	Disease          string   `json:"disease"`
	Confidence       string   `json:"confidence"`
	MedicationSource string   `json:"medication_source"`
	MedicationList   []string `json:"medication_list"`
	Description      Bullets  `json:"description"`
	TreatmentAdvice  Bullets  `json:"treatment_advice"`
	WhenToSeekHelp   Bullets  `json:"when_to_seek_help"`
	PreventionTips   Bullets  `json:"prevention_tips"`
}

// Bullets is advice text that the backend sends either as a string or a list.
type Bullets []string

// UnmarshalJSON accepts a JSON array of strings or a single string that is
// split on newlines and bullet markers.
func (b *Bullets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*b = Bullets(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = SplitBullets(s)
	return nil
}

// SplitBullets turns "• a\n- b" into ["a", "b"]
func SplitBullets(s string) Bullets {
	var out Bullets
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '•' }) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		line = strings.TrimSpace(strings.TrimPrefix(line, "* "))
		if line != "" && line != "-" {
			out = append(out, line)
		}
	}
	return out
}

// HealthStatus represents the portal health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Database string `json:"database,omitempty"`
	Sessions string `json:"sessions,omitempty"`
}
