package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/auth"
)

// AuthController handles login, logout and API token management.
type AuthController struct {
	service        *auth.Service
	sessionManager *auth.SessionManager
	rateLimiter    *auth.RateLimiter
}

func NewAuthController(service *auth.Service, sessionManager *auth.SessionManager, rateLimiter *auth.RateLimiter) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

// Login authenticates credentials and starts a session.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	ip := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Username); !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "too many login attempts",
				"retry_after": retryAfter.String(),
			})
			return
		}
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(ip, req.Username)
		}
		if errors.Is(err, auth.ErrAccountLocked) {
			respondError(c, http.StatusForbidden, "account is temporarily locked")
			return
		}
		// Same response for bad password and unknown user
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(ip, req.Username)
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
		"csrf_token": auth.GetCSRFToken(c),
	})
}

// Logout destroys the caller's session.
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			respondInternalError(c, err, "destroy session")
			return
		}
	}
	respondMessage(c, "logged out")
}

// Status reports the caller's authentication state.
// GET /api/auth/status
func (ac *AuthController) Status(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"authenticated": false,
			"mode":          ac.service.GetAuthMode(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"authenticated": true,
		"mode":          ac.service.GetAuthMode(),
		"user": gin.H{
			"id":       userID,
			"username": auth.GetUsername(c),
			"role":     auth.GetUserRole(c),
		},
	})
}

// GenerateToken issues a fresh API token for the caller. The plaintext
// appears in this response only.
// POST /api/auth/token
func (ac *AuthController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	token, err := ac.service.GenerateToken(userID)
	if err != nil {
		respondInternalError(c, err, "generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"message": "store this token now; it will not be shown again",
	})
}

// RevokeToken invalidates the caller's API token.
// DELETE /api/auth/token
func (ac *AuthController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := ac.service.RevokeToken(userID); err != nil {
		respondInternalError(c, err, "revoke token")
		return
	}

	respondMessage(c, "token revoked")
}
