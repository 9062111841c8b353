package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/openpos/backend/internal/infrastructure/auth"
	"github.com/openpos/backend/internal/infrastructure/config"
	"github.com/openpos/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints. Credentials come from
// configuration: the service runs with a single operator account.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	authConfig config.AuthConfig
	operatorID uuid.UUID
}

// NewAuthHandler creates a new auth handler. The operator ID is derived
// deterministically from the username so tokens stay valid across restarts.
func NewAuthHandler(jwtService *auth.JWTService, authConfig config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		authConfig: authConfig,
		operatorID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(authConfig.AdminUsername)),
	}
}

// RegisterRoutes registers auth routes on the given group
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.GET("/me", h.GetCurrentUser)
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if req.Username != h.authConfig.AdminUsername {
		h.Unauthorized(c, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.authConfig.AdminPasswordHash), []byte(req.Password)); err != nil {
		h.Unauthorized(c, "Invalid username or password")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   h.operatorID,
		Username: req.Username,
	})
	if err != nil {
		h.InternalError(c, "Failed to issue tokens")
		return
	}

	h.Success(c, LoginResponse{
		Token: TokenResponse{
			AccessToken:           pair.AccessToken,
			RefreshToken:          pair.RefreshToken,
			AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
			TokenType:             pair.TokenType,
		},
		User: AuthUserResponse{
			ID:       h.operatorID.String(),
			Username: req.Username,
		},
	})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		h.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	h.Success(c, RefreshTokenResponse{
		Token: TokenResponse{
			AccessToken:           pair.AccessToken,
			RefreshToken:          pair.RefreshToken,
			AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
			TokenType:             pair.TokenType,
		},
	})
}

// GetCurrentUser handles GET /auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, AuthUserResponse{
		ID:       claims.UserID,
		Username: claims.Username,
	})
}
