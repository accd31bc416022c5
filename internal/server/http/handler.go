package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kw-00/gossip/internal/common"
	"github.com/kw-00/gossip/internal/server/auth"
)

// refreshCookieName holds the refresh token id. The id is the secret itself,
// so the cookie is HttpOnly and scoped to the API path.
const refreshCookieName = "refresh_token"

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			s.writeError(w, http.StatusBadRequest, "login and password are required")
		case errors.Is(err, common.ErrorConflict):
			s.writeError(w, http.StatusConflict, "login already taken")
		default:
			s.logger.Error(r.Context(), "register failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.logger.Info(r.Context(), "Registered", "login", user.Login)
	s.writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Login: user.Login})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.sessions.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrUserNotFound):
			s.writeError(w, http.StatusUnauthorized, "invalid login or password")
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		s.writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	pair, err := s.sessions.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrReuseDetected):
			// The distinguished theft case. The family is already revoked;
			// the client has to authenticate from scratch.
			s.logger.Warn(r.Context(), "refresh token reuse at the edge")
			s.clearRefreshCookie(w)
			s.writeError(w, http.StatusUnauthorized, "session revoked, log in again")
		case errors.Is(err, common.ErrRefreshExpired),
			errors.Is(err, common.ErrRefreshRevoked),
			errors.Is(err, common.ErrRefreshNotFound):
			s.clearRefreshCookie(w)
			s.writeError(w, http.StatusUnauthorized, "refresh token is no longer valid")
		default:
			s.logger.Error(r.Context(), "refresh failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err == nil && cookie.Value != "" {
		if err := s.sessions.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.Error(r.Context(), "logout failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	// Logging out without a cookie is fine; the response is the same.
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)
	s.writeJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}

type ctxKey string

const userIDKey ctxKey = "userID"

func contextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// accessTokenMiddleware verifies the bearer token locally; the store is
// never consulted for access tokens.
func (s *HTTPServer) accessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := auth.UserIDFromToken(token, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				s.writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := contextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) setRefreshCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    id,
		Path:     "/api",
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *HTTPServer) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPServer) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}
