package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is how long a login stays valid
const SessionTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

func validateRegistration(req registerRequest) string {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return "username, email, and password required"
	}
	if !strings.Contains(req.Email, "@") {
		return "invalid email"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if msg := validateRegistration(req); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	var id string
	err = s.db.QueryRowContext(c.Request().Context(), `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		req.Username, req.Email, string(hash),
	).Scan(&id)

	if err != nil {
		if strings.Contains(err.Error(), "unique") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "username or email already exists"})
		}
		logger.Error("Failed to insert user", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	token, expiresAt, err := s.createSession(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to create session", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("User registered", logger.F("username", req.Username))

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    id,
	})
}

// handleLogin handles user login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	var id, passwordHash string
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT id, password_hash FROM users WHERE username = $1`,
		req.Username,
	).Scan(&id, &passwordHash)

	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		logger.Warn("Rejected login", logger.F("username", req.Username))
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	token, expiresAt, err := s.createSession(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to create session", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("User logged in", logger.F("username", req.Username))

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    id,
	})
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	var u model.User
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT id, username, email, created_at FROM users WHERE id = $1`,
		userID(c),
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, u)
}

// handleLogout deletes the session behind the bearer token
func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	if _, err := s.db.ExecContext(c.Request().Context(), `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		logger.Error("Failed to delete session", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// createSession creates a new session for a user
func (s *Server) createSession(ctx context.Context, userID string) (string, time.Time, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(tokenBytes)

	expiresAt := s.now().Add(SessionTTL)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)

	return token, expiresAt, err
}

// sessionByToken loads the session row for a bearer token
func (s *Server) sessionByToken(ctx context.Context, token string) (model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.ExpiresAt, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return sess, store.ErrUnauthorized
	}
	return sess, err
}
