package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/security"
)

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// profileResponse projects a user without the password hash.
func profileResponse(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"fullName":  user.FullName(),
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
		"active":    user.Active,
		"createdAt": user.CreatedAt,
	}
}

// Get returns the current user's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "user not found")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"user": profileResponse(user)})
}

// updateProfileRequest defines the editable profile fields.
type updateProfileRequest struct {
	FirstName string `json:"firstName" binding:"omitempty,max=50"`
	LastName  string `json:"lastName" binding:"omitempty,max=50"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
}

// Update changes the current user's profile fields. Email and role are not
// editable through this endpoint.
func (h *ProfileHandler) Update(c *gin.Context) {
	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "user not found")
		return
	}

	if v := strings.TrimSpace(body.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(body.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(body.Phone); v != "" {
		user.Phone = v
	}
	if errSave := h.db.WithContext(c.Request.Context()).Save(&user).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "update profile failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"user": profileResponse(user)})
}

// changePasswordRequest defines the password change body.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
}

// ChangePassword verifies the current password before setting a new one.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, getUserID(c)).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "user not found")
		return
	}
	if !security.CheckPassword(user.Password, body.CurrentPassword) {
		api.Fail(c, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, errHash := security.HashPassword(body.NewPassword)
	if errHash != nil {
		api.Fail(c, http.StatusInternalServerError, "hash password failed")
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).Model(&user).
		Update("password", hash).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "update password failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "password updated"})
}
