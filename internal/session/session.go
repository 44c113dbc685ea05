// Package session keeps the signed-in identity on the server. The browser
// holds only a signed cookie naming an opaque session id; the subject id
// lives in a Store.
package session

import (
	"context"

	"github.com/curelink/records-portal/internal/models"
)

type ctxKey struct{}

// WithSession returns a context carrying s
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the session middleware
func FromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*models.Session)
	return s, ok && s != nil
}
