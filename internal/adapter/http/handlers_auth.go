// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"badam/internal/app"
	"badam/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
)

// signinErrorRedirect is where the browser lands after a failed federated
// login; the error marker is generic on purpose.
const signinErrorRedirect = "/index.html?error=google_auth_failed"

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := s.auth.Signup(r.Context(), req.Username, req.Password)
	if errors.Is(err, app.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}
	if errors.Is(err, app.ErrDuplicateUsername) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.log.Error("signup", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	// Auto-login after signup.
	if err := s.startSession(w, r, account); err != nil {
		s.log.Error("signup session", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "User created successfully",
		"username": account.Username,
	})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := s.auth.Signin(r.Context(), req.Username, req.Password)
	if errors.Is(err, app.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		s.log.Error("signin", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	if err := s.startSession(w, r, account); err != nil {
		s.log.Error("signin session", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Sign in successful",
		"username": account.Username,
	})
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		_ = s.auth.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]any{"message": "Signed out successfully"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	account := accountFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"username":   account.DisplayName(),
		"email":      account.Email,
		"avatar_url": account.AvatarURL,
	})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		http.Error(w, "google sign-in disabled", http.StatusNotFound)
		return
	}

	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidc.Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		http.Error(w, "google sign-in disabled", http.StatusNotFound)
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.oidc.Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Error("oauth exchange", "err", err)
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		s.log.Error("oauth callback", "err", errors.New("no id_token in token response"))
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	idToken, err := s.oidc.Provider.Verifier(&oidc.Config{ClientID: s.oidc.Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		s.log.Error("oauth verify", "err", err)
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		s.log.Error("oauth claims", "err", err)
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	account, err := s.federated.Resolve(r.Context(), app.ExternalIdentity{
		FederatedID: claims.Sub,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	})
	if err != nil {
		s.log.Error("federated resolve", "err", err)
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	if err := s.startSession(w, r, account); err != nil {
		s.log.Error("oauth session", "err", err)
		http.Redirect(w, r, signinErrorRedirect, http.StatusFound)
		return
	}

	http.Redirect(w, r, "/main.html", http.StatusFound)
}

// startSession issues a session for the account and sets the cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, account *domain.Account) error {
	token, err := s.auth.IssueSession(r.Context(), account)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	return nil
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
