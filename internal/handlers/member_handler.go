package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type MemberHandler struct {
	members *services.MemberService
	audit   *services.AuditService
}

func NewMemberHandler(members *services.MemberService, audit *services.AuditService) *MemberHandler {
	return &MemberHandler{members: members, audit: audit}
}

func (h *MemberHandler) record(c *gin.Context, memberID uint, event string) {
	tc := tenant.FromGin(c)
	user := currentUser(c)
	if tc == nil {
		return
	}
	entry := services.AuditEntry{
		CompanyID:  &tc.CompanyID,
		EntityKind: models.EntityUser,
		EntityID:   memberID,
		Event:      event,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if user != nil {
		entry.ActorID = &user.ID
	}
	h.audit.Record(c.Request.Context(), entry)
}

func (h *MemberHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := services.MemberFilter{
		Role:         models.Role(c.Query("role")),
		DivisionID:   queryUint(c, "division_id"),
		DepartmentID: queryUint(c, "department_id"),
		TeamID:       queryUint(c, "team_id"),
		ActiveOnly:   c.Query("active") == "true",
	}

	members, total, err := h.members.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Paginated(c, members, page, limit, total)
}

func (h *MemberHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.members.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, member)
}

func (h *MemberHandler) Invite(c *gin.Context) {
	var req services.InviteInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.members.Invite(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, member.ID, "member.invited")
	utils.SendCreatedResponse(c, member)
}

// AcceptInvitation completes a personal invite. Public endpoint; the
// token authenticates the request.
func (h *MemberHandler) AcceptInvitation(c *gin.Context) {
	var req services.AcceptInvitationInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.members.AcceptInvitation(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, member.ID, "member.invitation_accepted")
	utils.SendSuccessResponse(c, userInfo(member))
}

// Join is the self-signup endpoint behind a unit invitation link.
func (h *MemberHandler) Join(c *gin.Context) {
	var req services.JoinByUnitLinkInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.members.JoinByUnitLink(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, member.ID, "member.joined")
	utils.SendCreatedResponse(c, userInfo(member))
}

// Update patches placement, role and activation. Covers the member
// role-assignment endpoint.
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMemberInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.members.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, member.ID, "member.updated")
	utils.SendSuccessResponse(c, member)
}

func (h *MemberHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.members.Deactivate(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	h.record(c, id, "member.deactivated")
	utils.NoContent(c)
}
