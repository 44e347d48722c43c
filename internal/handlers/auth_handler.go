package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	User   UserInfo            `json:"user"`
	Tokens *services.TokenPair `json:"tokens"`
}

type UserInfo struct {
	ID        uint        `json:"id"`
	UUID      string      `json:"uuid"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	CompanyID *uint       `json:"company_id,omitempty"`
}

func userInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:        user.ID,
		UUID:      user.UUID,
		Email:     user.Email,
		Name:      user.FullName(),
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

type AuthHandler struct {
	auth  *services.AuthService
	oauth *services.OAuthService
	audit *services.AuditService
}

func NewAuthHandler(auth *services.AuthService, oauth *services.OAuthService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{auth: auth, oauth: oauth, audit: audit}
}

// Login is the tenant-scoped password login. The tenant middleware has
// already resolved the company, so credentials are checked inside it.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	tc := tenant.FromGin(c)
	var companyID *uint
	if tc != nil {
		companyID = &tc.CompanyID
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:  user.CompanyID,
		EntityKind: models.EntityUser,
		EntityID:   user.ID,
		Event:      "auth.login",
		ActorID:    &user.ID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})

	utils.SendSuccessResponse(c, AuthResponse{User: userInfo(user), Tokens: tokens})
}

// HQLogin authenticates HQ admins outside any tenant.
func (h *AuthHandler) HQLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user.Role != models.RoleHQAdmin {
		utils.SendErrorResponse(c, http.StatusForbidden, "Access denied", nil)
		return
	}

	utils.SendSuccessResponse(c, AuthResponse{User: userInfo(user), Tokens: tokens})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, AuthResponse{User: userInfo(user), Tokens: tokens})
}

// GoogleLogin starts the OAuth consent flow for a tenant.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	tc := tenant.FromGin(c)
	if tc == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	authURL, err := h.oauth.BeginLogin(tc.Slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{"auth_url": authURL})
}

// GoogleLink starts the consent flow that attaches a Google account to
// the signed-in user.
func (h *AuthHandler) GoogleLink(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	authURL, err := h.oauth.BeginLink(user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{"auth_url": authURL})
}

// GoogleCallback completes the OAuth flow. The signed state token
// carries the original intent, so this endpoint is tenant-agnostic.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Missing code or state", nil)
		return
	}

	user, tokens, err := h.oauth.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:  user.CompanyID,
		EntityKind: models.EntityUser,
		EntityID:   user.ID,
		Event:      "auth.google",
		ActorID:    &user.ID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})

	utils.SendSuccessResponse(c, AuthResponse{User: userInfo(user), Tokens: tokens})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	utils.SendSuccessResponse(c, userInfo(user))
}
