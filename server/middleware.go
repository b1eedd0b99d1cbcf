package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// authMiddleware checks for valid session token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Get token from Authorization header
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		}

		// Validate session
		session, err := s.lookupSession(c.Request().Context(), token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		if session.IsExpired(s.now()) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token expired"})
		}

		c.Set("user_id", session.UserID)
		c.Set("token", token)
		return next(c)
	}
}

// ownerGuard rejects requests that name an owner other than the session user
func (s *Server) ownerGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if owner := c.QueryParam("owner"); owner != "" && owner != userID(c) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "owner mismatch"})
		}
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}
