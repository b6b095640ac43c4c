package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
)

// AuthHandler serves login and registration.
type AuthHandler struct {
	service *auth.Service
	users   *repository.UserRepository
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, users *repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("Failed to look up user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil || h.service.VerifyPassword(user.PasswordHash, req.Password) != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.service.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	role, err := h.users.RoleName(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	respondOK(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  role,
		},
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id"`
}

var knownRoles = map[string]bool{
	models.RoleHR:      true,
	models.RoleHO:      true,
	models.RoleAdmin:   true,
	models.RoleManager: true,
	models.RoleBDA:     true,
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name, email and password are required")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleBDA
	}
	if !knownRoles[role] {
		respondError(c, http.StatusBadRequest, "Unknown role")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}
	if existing != nil {
		respondError(c, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := h.service.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	roleID, err := h.users.EnsureRole(role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       roleID,
		SchoolID:     req.SchoolID,
	}
	if err := h.users.Create(nil, user); err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	respondCreated(c, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  role,
	})
}
