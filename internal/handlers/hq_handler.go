package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// HQHandler exposes the cross-tenant operator surface. Every route is
// gated behind the hq_admin role at the router.
type HQHandler struct {
	companies *services.CompanyService
	audit     *services.AuditService
}

func NewHQHandler(companies *services.CompanyService, audit *services.AuditService) *HQHandler {
	return &HQHandler{companies: companies, audit: audit}
}

func (h *HQHandler) record(c *gin.Context, companyID uint, event, description string) {
	var actorID *uint
	if user := currentUser(c); user != nil {
		actorID = &user.ID
	}
	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:   &companyID,
		EntityKind:  models.EntityCompany,
		EntityID:    companyID,
		Event:       event,
		Description: description,
		ActorID:     actorID,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
}

func (h *HQHandler) ListCompanies(c *gin.Context) {
	page, limit := pagination(c)
	companies, total, err := h.companies.List(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Paginated(c, companies, page, limit, total)
}

func (h *HQHandler) ShowCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	company, err := h.companies.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, company)
}

func (h *HQHandler) CompanyStats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	stats, err := h.companies.Stats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, stats)
}

func (h *HQHandler) SuspendCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Suspend(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, id, "company.suspended", "Company suspended by operator")
	utils.SendSuccessResponse(c, gin.H{"status": models.CompanyStatusSuspended})
}

func (h *HQHandler) ActivateCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Activate(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, id, "company.activated", "Company reactivated by operator")
	utils.SendSuccessResponse(c, gin.H{"status": models.CompanyStatusActive})
}

func (h *HQHandler) OnboardCompany(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Onboard(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, id, "company.onboarded", "Company onboarding completed by operator")
	utils.SendSuccessResponse(c, gin.H{"onboarded": true})
}
