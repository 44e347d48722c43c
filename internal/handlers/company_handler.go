package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type RegisterCompanyRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Slug        string `json:"slug"`
	Timezone    string `json:"timezone"`
	AdminEmail  string `json:"admin_email" binding:"required,email"`
	AdminName   string `json:"admin_name" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type UpdateSettingsRequest struct {
	WelcomePage             models.JSON        `json:"welcome_page"`
	LoginIPWhitelist        *models.StringList `json:"login_ip_whitelist"`
	NotificationPreferences models.JSON        `json:"notification_preferences"`
	EnabledLevels           *models.StringList `json:"enabled_levels"`
}

type CompanyHandler struct {
	companies *services.CompanyService
	audit     *services.AuditService
}

func NewCompanyHandler(companies *services.CompanyService, audit *services.AuditService) *CompanyHandler {
	return &CompanyHandler{companies: companies, audit: audit}
}

// Register is the public self-service signup creating a company and its
// first admin.
func (h *CompanyHandler) Register(c *gin.Context) {
	var req RegisterCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Slug == "" {
		req.Slug = utils.Slugify(req.CompanyName)
	}
	if err := utils.ValidateSlug(req.Slug); err != nil {
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "slug", Message: err.Error()}})
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "password", Message: err.Error()}})
		return
	}

	company, admin, err := h.companies.Register(c.Request.Context(), services.RegisterInput{
		CompanyName: req.CompanyName,
		Slug:        req.Slug,
		Timezone:    req.Timezone,
		AdminEmail:  req.AdminEmail,
		AdminName:   req.AdminName,
		Password:    req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:  &company.ID,
		EntityKind: models.EntityCompany,
		EntityID:   company.ID,
		Event:      "company.registered",
		ActorID:    &admin.ID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})

	utils.SendCreatedResponse(c, gin.H{"company": company, "admin": userInfo(admin)})
}

// Show returns the active tenant's profile and settings.
func (h *CompanyHandler) Show(c *gin.Context) {
	tc := tenant.FromGin(c)
	if tc == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	company, err := h.companies.GetByID(c.Request.Context(), tc.CompanyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, company)
}

// UpdateSettings patches the tenant settings row.
func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	tc := tenant.FromGin(c)
	user := currentUser(c)
	if tc == nil || user == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	var req UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	setting, err := h.companies.UpdateSettings(c.Request.Context(), tc.CompanyID, services.SettingsInput{
		WelcomePage:             req.WelcomePage,
		LoginIPWhitelist:        req.LoginIPWhitelist,
		NotificationPreferences: req.NotificationPreferences,
		EnabledLevels:           req.EnabledLevels,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:  &tc.CompanyID,
		EntityKind: models.EntityCompany,
		EntityID:   tc.CompanyID,
		Event:      "company.settings_updated",
		ActorID:    &user.ID,
	})
	utils.SendSuccessResponse(c, setting)
}

// AuditTrail lists the tenant's audit log, newest first.
func (h *CompanyHandler) AuditTrail(c *gin.Context) {
	tc := tenant.FromGin(c)
	if tc == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	page, limit := pagination(c)
	logs, total, err := h.audit.List(c.Request.Context(), tc.CompanyID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Paginated(c, logs, page, limit, total)
}
