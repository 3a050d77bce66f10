package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/gin-gonic/gin"
)

// ContextKeyUserID is the Gin context key for the resolved user id.
const ContextKeyUserID = "user_id"

// TokenValidator verifies a raw token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// RequireUser resolves the current user from a bearer token or the auth
// cookie. Requests without a valid identity are rejected.
func RequireUser(auth TokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" && cookieName != "" {
			tokenStr, _ = c.Cookie(cookieName)
		}
		authenticate(c, auth, tokenStr)
	}
}

// RequireUserWS is RequireUser for WebSocket upgrades, where browsers
// cannot set headers: the token may also come from ?token=.
func RequireUserWS(auth TokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = bearerToken(c)
		}
		if tokenStr == "" && cookieName != "" {
			tokenStr, _ = c.Cookie(cookieName)
		}
		authenticate(c, auth, tokenStr)
	}
}

// GetUserID returns the authenticated user id, or "" outside RequireUser.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func authenticate(c *gin.Context, auth TokenValidator, tokenStr string) {
	if tokenStr == "" {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	claims, err := auth.ValidateToken(tokenStr)
	if err != nil {
		code := response.ErrTokenInvalid
		if errors.Is(err, service.ErrTokenExpired) {
			code = response.ErrTokenExpired
		}
		response.AbortFail(c, http.StatusUnauthorized, code)
		return
	}

	c.Set(ContextKeyUserID, claims.UserID)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
