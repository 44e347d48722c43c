package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// OrgHandler exposes the division/department/team hierarchy.
type OrgHandler struct {
	org   *services.OrgService
	audit *services.AuditService
}

func NewOrgHandler(org *services.OrgService, audit *services.AuditService) *OrgHandler {
	return &OrgHandler{org: org, audit: audit}
}

func (h *OrgHandler) record(c *gin.Context, kind models.EntityKind, id uint, event string) {
	tc := tenant.FromGin(c)
	user := currentUser(c)
	if tc == nil || user == nil {
		return
	}
	h.audit.Record(c.Request.Context(), services.AuditEntry{
		CompanyID:  &tc.CompanyID,
		EntityKind: kind,
		EntityID:   id,
		Event:      event,
		ActorID:    &user.ID,
	})
}

// --- Divisions ---

func (h *OrgHandler) ListDivisions(c *gin.Context) {
	divisions, err := h.org.ListDivisions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, divisions)
}

func (h *OrgHandler) CreateDivision(c *gin.Context) {
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	division, err := h.org.CreateDivision(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDivision, division.ID, "division.created")
	utils.SendCreatedResponse(c, division)
}

func (h *OrgHandler) UpdateDivision(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	division, err := h.org.UpdateDivision(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDivision, division.ID, "division.updated")
	utils.SendSuccessResponse(c, division)
}

func (h *OrgHandler) DeleteDivision(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.org.DeleteDivision(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDivision, id, "division.deleted")
	utils.NoContent(c)
}

// --- Departments ---

func (h *OrgHandler) ListDepartments(c *gin.Context) {
	departments, err := h.org.ListDepartments(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, departments)
}

func (h *OrgHandler) CreateDepartment(c *gin.Context) {
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	department, err := h.org.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDepartment, department.ID, "department.created")
	utils.SendCreatedResponse(c, department)
}

func (h *OrgHandler) UpdateDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	department, err := h.org.UpdateDepartment(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDepartment, department.ID, "department.updated")
	utils.SendSuccessResponse(c, department)
}

func (h *OrgHandler) DeleteDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.org.DeleteDepartment(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDepartment, id, "department.deleted")
	utils.NoContent(c)
}

// --- Teams ---

func (h *OrgHandler) ListTeams(c *gin.Context) {
	teams, err := h.org.ListTeams(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, teams)
}

func (h *OrgHandler) CreateTeam(c *gin.Context) {
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.org.CreateTeam(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityTeam, team.ID, "team.created")
	utils.SendCreatedResponse(c, team)
}

func (h *OrgHandler) UpdateTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.OrgUnitInput
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.org.UpdateTeam(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityTeam, team.ID, "team.updated")
	utils.SendSuccessResponse(c, team)
}

func (h *OrgHandler) DeleteTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.org.DeleteTeam(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityTeam, id, "team.deleted")
	utils.NoContent(c)
}

// --- Hierarchy seeding and invitation links ---

func (h *OrgHandler) SeedHierarchy(c *gin.Context) {
	var req services.SeedHierarchyInput
	if !bindJSON(c, &req) {
		return
	}
	division, err := h.org.SeedHierarchy(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, models.EntityDivision, division.ID, "division.seeded")
	utils.SendCreatedResponse(c, division)
}

type invitationLinkResponse struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

// EnableInvitation turns on a unit's self-signup link. The unit kind
// comes from the route.
func (h *OrgHandler) EnableInvitation(kind models.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		token, err := h.org.EnableInvitation(c.Request.Context(), kind, id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		h.record(c, kind, id, "invitation.enabled")
		utils.SendSuccessResponse(c, invitationLinkResponse{Token: token, Enabled: true})
	}
}

func (h *OrgHandler) DisableInvitation(kind models.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.org.DisableInvitation(c.Request.Context(), kind, id); err != nil {
			respondServiceError(c, err)
			return
		}
		h.record(c, kind, id, "invitation.disabled")
		utils.SendSuccessResponse(c, invitationLinkResponse{Enabled: false})
	}
}
