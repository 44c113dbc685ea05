package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curelink/records-portal/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the session cookie
	CookieName = "curelink_session"

	issuer  = "curelink-portal"
	keyInfo = "curelink session cookie v1"
)

// ErrNoSession is returned when the request carries no usable session cookie
var ErrNoSession = errors.New("no session")

// Manager ties the signed cookie to the Store
type Manager struct {
	store  Store
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewManager derives the cookie signing key from secret with HKDF-SHA256
func NewManager(store Store, secret string, ttl time.Duration, secure bool, logger *zap.SugaredLogger) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &Manager{store: store, key: key, ttl: ttl, secure: secure, now: time.Now, logger: logger}, nil
}

// Store exposes the backing store (health checks)
func (m *Manager) Store() Store {
	return m.store
}

// Start stores s under a fresh id and sets the session cookie
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, s models.Session) error {
	id := uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	if err := m.store.Put(ctx, id, s, m.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	claims := jwt.RegisteredClaims{
		ID:       id,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(m.now()),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(m.now().Add(m.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.MaxAge = int(m.ttl.Seconds())
	}
	http.SetCookie(w, cookie)

	m.logger.Infow("Session started", "role", s.Role)
	return nil
}

// Load resolves the request's cookie to its stored session
func (m *Manager) Load(r *http.Request) (*models.Session, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return nil, err
	}
	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// End deletes the stored session and clears the cookie
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	return m.store.Delete(r.Context(), id)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}
