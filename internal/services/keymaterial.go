package services

import (
	"encoding/base64"
	"errors"

	"github.com/curelink/records-portal/internal/models"
)

// File names offered for the key downloads
const (
	KeyFileName   = "curelink-private-key.pem"
	KeyQRFileName = "curelink-private-key-qr.png"
)

// ErrAlreadyRevealed is returned when a flow is asked to reveal a second key
var ErrAlreadyRevealed = errors.New("key material already revealed")

// KeyMaterial holds a freshly generated private key for a single page render.
// It has no JSON form and is never handed to a session store or logger.
type KeyMaterial struct {
	privateKey string
	qrPNG      string // base64 PNG, optional
}

// Text is the private key exactly as the backend returned it
func (k *KeyMaterial) Text() string { return k.privateKey }

// HasQR reports whether the backend sent a QR rendering of the key
func (k *KeyMaterial) HasQR() bool { return k.qrPNG != "" }

// DownloadHref is a data URL that saves the key as a .pem file
func (k *KeyMaterial) DownloadHref() string {
	return "data:application/x-pem-file;base64," + base64.StdEncoding.EncodeToString([]byte(k.privateKey))
}

// QRHref is a data URL of the QR PNG, empty when there is none
func (k *KeyMaterial) QRHref() string {
	if k.qrPNG == "" {
		return ""
	}
	return "data:image/png;base64," + k.qrPNG
}

// String keeps the key out of fmt and log output
func (k *KeyMaterial) String() string { return "KeyMaterial(redacted)" }

// GoString keeps the key out of %#v output
func (k *KeyMaterial) GoString() string { return k.String() }

// RegistrationState is the step of the patient registration page
type RegistrationState int

const (
	StateForm RegistrationState = iota
	StateKeyRevealed
)

func (s RegistrationState) String() string {
	if s == StateKeyRevealed {
		return "KEY_REVEALED"
	}
	return "FORM"
}

// RegistrationFlow moves FORM -> KEY_REVEALED once and never back
type RegistrationFlow struct {
	state  RegistrationState
	key    *KeyMaterial
	userID models.ID
}

// NewRegistrationFlow starts in FORM
func NewRegistrationFlow() *RegistrationFlow {
	return &RegistrationFlow{state: StateForm}
}

// State is the current step
func (f *RegistrationFlow) State() RegistrationState { return f.state }

// Key returns the revealed key material; ok is false while in FORM
func (f *RegistrationFlow) Key() (*KeyMaterial, bool) {
	return f.key, f.state == StateKeyRevealed
}

// UserID is the subject id returned with the key, if any
func (f *RegistrationFlow) UserID() models.ID { return f.userID }

func (f *RegistrationFlow) reveal(res *models.RegistrationResult) error {
	if f.state == StateKeyRevealed {
		return ErrAlreadyRevealed
	}
	f.key = &KeyMaterial{privateKey: res.PrivateKey, qrPNG: res.QRCode}
	f.userID = res.UserID
	f.state = StateKeyRevealed
	return nil
}
