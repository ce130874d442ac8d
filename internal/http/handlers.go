package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	applog "nutrihelper/internal/log"
	"nutrihelper/internal/session"
)

const sessionCookie = "nh_session"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady probes every configured dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.readyChecks)+1)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for _, c := range s.readyChecks {
		if err := c.Check(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", c.Name, applog.FieldError, err)
			checks[c.Name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess session.Session)

// withSession resolves the session cookie and answers 401 when it is
// missing, unknown or expired.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.currentSession(r)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				writeError(w, r, "session", err)
				return
			}
			s.clearSessionCookie(w)
			UnauthorizedError().Write(w)
			return
		}
		logger := applog.FromContext(r.Context()).With(applog.FieldUser, sess.User())
		next(w, r.WithContext(applog.NewContext(r.Context(), logger)), sess)
	}
}

func (s *Server) currentSession(r *http.Request) (session.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return session.Session{}, session.ErrNotFound
	}
	return s.auth.Resolve(r.Context(), c.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
