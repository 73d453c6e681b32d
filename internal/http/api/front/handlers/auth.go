package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/cache"
	"github.com/eventhub/eventhub-backend/internal/config"
	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/security"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	db      *gorm.DB
	jwtCfg  config.JWTConfig
	revoked *cache.RevocationStore
}

// NewAuthHandler constructs an AuthHandler. The revocation store may be nil.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, revoked *cache.RevocationStore) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg, revoked: revoked}
}

// registerRequest defines the request body for user registration.
type registerRequest struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
}

// Register creates a new user account and issues a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var exists models.User
	errCheck := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&exists).Error
	if errCheck == nil {
		api.Fail(c, http.StatusConflict, "email already registered")
		return
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		api.Fail(c, http.StatusInternalServerError, "hash password failed")
		return
	}

	user := models.User{
		FirstName: strings.TrimSpace(body.FirstName),
		LastName:  strings.TrimSpace(body.LastName),
		Email:     email,
		Password:  hash,
		Phone:     strings.TrimSpace(body.Phone),
		Role:      models.RoleUser,
		Active:    true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		api.Fail(c, http.StatusInternalServerError, "create user failed")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			api.Fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	if !user.Active {
		api.Fail(c, http.StatusForbidden, "account is deactivated")
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		api.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// Logout revokes the presented token for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		api.Fail(c, http.StatusBadRequest, "missing token")
		return
	}
	if h.revoked != nil {
		claims, errParse := security.ParseToken(h.jwtCfg.Secret, token)
		if errParse == nil && claims.ExpiresAt != nil {
			if errRevoke := h.revoked.Revoke(c.Request.Context(), token, claims.ExpiresAt.Time); errRevoke != nil {
				api.Fail(c, http.StatusInternalServerError, "logout failed")
				return
			}
		}
	}
	api.OK(c, http.StatusOK, gin.H{"message": "logged out"})
}

// respondWithToken issues a JWT for the user and writes the auth payload.
func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user models.User) {
	expiry := time.Duration(h.jwtCfg.ExpiryHours) * time.Hour
	token, errSign := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Role, expiry)
	if errSign != nil {
		api.Fail(c, http.StatusInternalServerError, "sign token failed")
		return
	}
	api.OK(c, status, gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}
