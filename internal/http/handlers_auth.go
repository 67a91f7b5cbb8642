package http

import (
	"net/http"

	"finanse/internal/auth"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sess, err := s.deps.Auth.SignUp(r.Context(), req.Email, req.Password, sanitizeInput(req.DisplayName))
	if err != nil {
		s.writeError(w, r, "signup", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(sess).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sess, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "signin", err)
		return
	}
	NewJSONResponse().Body(sess).Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.Profile(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, "profile", err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	u, err := s.deps.Auth.UpdateProfile(r.Context(), auth.OwnerFrom(r.Context()), sanitizeInput(req.DisplayName))
	if err != nil {
		s.writeError(w, r, "update_profile", err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.DarkMode == nil {
		ValidationErrorResponse(map[string]bool{"darkMode": true}).Write(w)
		return
	}
	u, err := s.deps.Auth.SetTheme(r.Context(), auth.OwnerFrom(r.Context()), *req.DarkMode)
	if err != nil {
		s.writeError(w, r, "set_theme", err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}
