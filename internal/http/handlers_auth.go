package http

import (
	"net/http"

	"nutrihelper/internal/api"
	applog "nutrihelper/internal/log"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req.Name = sanitizeInput(req.Name)

	msg, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageJSON{Message: msg})
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginBody
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, applog.OpLogin, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, sessionJSON{Email: sess.Email, ExpiresAt: sess.ExpiresAt.UTC()})
}

// handleLogout always clears the cookie; an unknown session is not an
// error.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		s.clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.auth.Logout(r.Context(), sess); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete session",
			applog.FieldUser, sess.User(),
			applog.FieldError, err)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordReset
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	msg, err := s.auth.ForgotPassword(r.Context(), req)
	if err != nil {
		writeError(w, r, "reset_password", err)
		return
	}
	writeJSON(w, http.StatusOK, messageJSON{Message: msg})
}
