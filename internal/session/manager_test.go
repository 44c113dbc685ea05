package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/curelink/records-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T, store Store, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(store, "test-secret", ttl, false, zap.NewNop().Sugar())
	require.NoError(t, err)
	return m
}

// requestWith replays the cookies set on rec
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStartLoadEnd(t *testing.T) {
	store := NewMemoryStore()
	m := newManager(t, store, 0)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, models.Session{SubjectID: "42", Role: models.RolePatient}))
	assert.Equal(t, 1, store.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := requestWith(rec)
	s, err := m.Load(req)
	require.NoError(t, err)
	assert.Equal(t, models.ID("42"), s.SubjectID)
	assert.Equal(t, models.RolePatient, s.Role)

	out := httptest.NewRecorder()
	require.NoError(t, m.End(out, req))
	assert.Equal(t, 0, store.Len())

	_, err = m.Load(req)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, -1, out.Result().Cookies()[0].MaxAge)
}

func TestLoadWithoutCookie(t *testing.T) {
	m := newManager(t, NewMemoryStore(), 0)

	_, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadRejectsForeignSignature(t *testing.T) {
	store := NewMemoryStore()
	issuerMgr, err := NewManager(store, "other-secret", 0, false, zap.NewNop().Sugar())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, issuerMgr.Start(context.Background(), rec, models.Session{SubjectID: "1", Role: models.RolePatient}))

	_, err = newManager(t, store, 0).Load(requestWith(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionTTL(t *testing.T) {
	store := NewMemoryStore()
	m := newManager(t, store, time.Hour)

	now := time.Now()
	m.now = func() time.Time { return now }
	store.now = m.now

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, models.Session{SubjectID: "1", Role: models.RoleHospital}))
	req := requestWith(rec)

	_, err := m.Load(req)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Load(req)
	assert.Error(t, err)
}

func TestEndWithoutCookieIsNoop(t *testing.T) {
	m := newManager(t, NewMemoryStore(), 0)
	rec := httptest.NewRecorder()
	assert.NoError(t, m.End(rec, httptest.NewRequest(http.MethodPost, "/logout", nil)))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), &models.Session{SubjectID: "9"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, models.ID("9"), s.SubjectID)
}
