package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const viewerContextKey contextKey = "viewer"

// ViewerCookie names the cookie that identifies a browser.
const ViewerCookie = "poolside_viewer"

// viewerCookieMaxAge keeps the identity for a year of return visits.
const viewerCookieMaxAge = 365 * 24 * time.Hour

// SecureCookies controls the Secure flag on issued cookies.
var SecureCookies = false

// Viewer makes sure every request carries a viewer id, issuing a new random
// one when the cookie is missing or malformed.
func Viewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(ViewerCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ViewerCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(viewerCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithViewerID(r.Context(), id)))
	})
}

// WithViewerID stores the viewer id in ctx.
func WithViewerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, viewerContextKey, id)
}

// ViewerID returns the viewer id set by Viewer.
func ViewerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(viewerContextKey).(string)
	return id, ok && id != ""
}
