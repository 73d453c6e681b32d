package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/security"
)

// UserAdminHandler serves the admin user management endpoints.
type UserAdminHandler struct {
	db *gorm.DB
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(conn *gorm.DB) *UserAdminHandler {
	return &UserAdminHandler{db: conn}
}

// userResponse projects a user without the password hash.
func userResponse(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
		"active":    user.Active,
		"createdAt": user.CreatedAt,
		"updatedAt": user.UpdatedAt,
	}
}

// List returns users with optional role and search filters.
func (h *UserAdminHandler) List(c *gin.Context) {
	page, limit := api.ParsePagination(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		like := db.CaseInsensitiveLikeExpr(h.db, "email")
		nameLike := db.CaseInsensitiveLikeExpr(h.db, "first_name")
		q = q.Where(like+" OR "+nameLike, pattern, pattern)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	var items []models.User
	if errFind := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; errFind != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}

	users := make([]gin.H, 0, len(items))
	for _, user := range items {
		users = append(users, userResponse(user))
	}
	api.OK(c, http.StatusOK, gin.H{
		"users":      users,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// Get returns one user.
func (h *UserAdminHandler) Get(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "user not found")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"user": userResponse(user)})
}

// createUserRequest defines the body for creating a user account.
type createUserRequest struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Role      string `json:"role" binding:"omitempty,oneof=user admin"`
}

// Create adds a user account, optionally with the admin role.
func (h *UserAdminHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var exists models.User
	if errCheck := h.db.WithContext(c.Request.Context()).
		Where("email = ?", email).First(&exists).Error; errCheck == nil {
		api.Fail(c, http.StatusConflict, "email already registered")
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		api.Fail(c, http.StatusInternalServerError, "hash password failed")
		return
	}

	role := body.Role
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		FirstName: strings.TrimSpace(body.FirstName),
		LastName:  strings.TrimSpace(body.LastName),
		Email:     email,
		Password:  hash,
		Phone:     strings.TrimSpace(body.Phone),
		Role:      role,
		Active:    true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		api.Fail(c, http.StatusInternalServerError, "create user failed")
		return
	}
	api.OK(c, http.StatusCreated, gin.H{"user": userResponse(user)})
}

// updateUserRequest defines the admin-editable user fields.
type updateUserRequest struct {
	FirstName string `json:"firstName" binding:"omitempty,max=50"`
	LastName  string `json:"lastName" binding:"omitempty,max=50"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Role      string `json:"role" binding:"omitempty,oneof=user admin"`
	Active    *bool  `json:"active"`
}

// Update edits a user's profile fields, role and active flag.
func (h *UserAdminHandler) Update(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
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
	if body.Role != "" {
		user.Role = body.Role
	}
	if body.Active != nil {
		user.Active = *body.Active
	}
	if errSave := h.db.WithContext(c.Request.Context()).Save(&user).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "update user failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"user": userResponse(user)})
}

// Delete deactivates a user instead of removing the row, so their financial
// history stays intact.
func (h *UserAdminHandler) Delete(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	if id == getAdminID(c) {
		api.Fail(c, http.StatusConflict, "cannot deactivate your own account")
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "user not found")
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).Model(&user).
		Update("active", false).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "deactivate user failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "user deactivated"})
}
