package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func makeUser(id, companyID uint, role models.Role) *models.User {
	return &models.User{ID: id, CompanyID: uintPtr(companyID), Role: role}
}

func TestCrossTenantAlwaysDenied(t *testing.T) {
	admin := makeUser(1, 1, models.RoleCompanyAdmin)
	report := &models.WeeklyReport{CompanyID: 2, UserID: 99, Status: models.ReportStatusDraft}

	assert.False(t, CanViewReport(admin, report))
	assert.False(t, CanUpdateReport(admin, report))
	assert.False(t, CanManageDivision(admin, &models.Division{ID: 1, CompanyID: 2}))
	assert.False(t, CanExportReports(admin, 2, nil))
}

func TestCompanyAdminWithinTenant(t *testing.T) {
	admin := makeUser(1, 1, models.RoleCompanyAdmin)
	report := &models.WeeklyReport{CompanyID: 1, UserID: 2, Status: models.ReportStatusSubmitted}

	assert.True(t, CanViewReport(admin, report))
	assert.True(t, CanUpdateReport(admin, report))
	assert.True(t, CanLockReport(admin, report))
	assert.True(t, CanManageTeam(admin, &models.Team{ID: 5, CompanyID: 1}))
}

func TestTeamLeadExactMatch(t *testing.T) {
	lead := makeUser(1, 1, models.RoleTeamLead)
	lead.TeamID = uintPtr(5)

	own := &models.WeeklyReport{CompanyID: 1, UserID: 2, TeamID: uintPtr(5), Status: models.ReportStatusDraft}
	other := &models.WeeklyReport{CompanyID: 1, UserID: 3, TeamID: uintPtr(6), Status: models.ReportStatusDraft}

	assert.True(t, CanUpdateReport(lead, own))
	assert.False(t, CanUpdateReport(lead, other))

	assert.True(t, CanManageTeam(lead, &models.Team{ID: 5, CompanyID: 1}))
	assert.False(t, CanManageTeam(lead, &models.Team{ID: 6, CompanyID: 1}))
}

func TestAuthorRules(t *testing.T) {
	author := makeUser(2, 1, models.RoleMember)

	draft := &models.WeeklyReport{CompanyID: 1, UserID: 2, Status: models.ReportStatusDraft}
	submitted := &models.WeeklyReport{CompanyID: 1, UserID: 2, Status: models.ReportStatusSubmitted}

	assert.True(t, CanViewReport(author, draft))
	assert.True(t, CanUpdateReport(author, draft))
	assert.True(t, CanSubmitReport(author, draft))
	assert.True(t, CanDeleteReport(author, draft))

	// Once submitted, the author loses every mutation path.
	assert.True(t, CanViewReport(author, submitted))
	assert.False(t, CanUpdateReport(author, submitted))
	assert.False(t, CanSubmitReport(author, submitted))
	assert.False(t, CanDeleteReport(author, submitted))
	assert.False(t, CanReopenReport(author, submitted))
}

func TestLockedReportIsImmutableForEveryRole(t *testing.T) {
	locked := &models.WeeklyReport{CompanyID: 1, UserID: 2, TeamID: uintPtr(5), Status: models.ReportStatusLocked}

	roles := []models.Role{
		models.RoleMember,
		models.RoleTeamLead,
		models.RoleDepartmentManager,
		models.RoleDivisionLead,
		models.RoleCompanyAdmin,
	}

	for _, role := range roles {
		user := makeUser(2, 1, role)
		user.TeamID = uintPtr(5)
		assert.False(t, CanUpdateReport(user, locked), "role %s", role)
		assert.False(t, CanSubmitReport(user, locked), "role %s", role)
		assert.False(t, CanDeleteReport(user, locked), "role %s", role)
		assert.False(t, CanReopenReport(user, locked), "role %s", role)
	}
}

func TestReopenRules(t *testing.T) {
	submitted := &models.WeeklyReport{CompanyID: 1, UserID: 2, TeamID: uintPtr(5), Status: models.ReportStatusSubmitted}
	draft := &models.WeeklyReport{CompanyID: 1, UserID: 2, TeamID: uintPtr(5), Status: models.ReportStatusDraft}

	lead := makeUser(9, 1, models.RoleTeamLead)
	lead.TeamID = uintPtr(5)

	assert.True(t, CanReopenReport(lead, submitted))
	// Nothing to reopen while the report is still a draft.
	assert.False(t, CanReopenReport(lead, draft))

	// The author never reopens their own submitted report, authority or not.
	authorLead := makeUser(2, 1, models.RoleTeamLead)
	authorLead.TeamID = uintPtr(5)
	assert.False(t, CanReopenReport(authorLead, submitted))
}

func TestLockRequiresSubmitted(t *testing.T) {
	lead := makeUser(9, 1, models.RoleDepartmentManager)
	lead.DepartmentID = uintPtr(3)

	draft := &models.WeeklyReport{CompanyID: 1, UserID: 2, DepartmentID: uintPtr(3), Status: models.ReportStatusDraft}
	submitted := &models.WeeklyReport{CompanyID: 1, UserID: 2, DepartmentID: uintPtr(3), Status: models.ReportStatusSubmitted}

	assert.False(t, CanLockReport(lead, draft))
	assert.True(t, CanLockReport(lead, submitted))
}

func TestExportRules(t *testing.T) {
	admin := makeUser(1, 1, models.RoleCompanyAdmin)
	lead := makeUser(2, 1, models.RoleTeamLead)
	lead.TeamID = uintPtr(5)
	member := makeUser(3, 1, models.RoleMember)

	matching := &models.WeeklyReport{CompanyID: 1, UserID: 4, TeamID: uintPtr(5)}
	foreign := &models.WeeklyReport{CompanyID: 1, UserID: 4, TeamID: uintPtr(6)}

	assert.True(t, CanExportReports(admin, 1, nil))
	assert.True(t, CanExportReports(admin, 1, foreign))

	// Leads may bulk-export, but a specific report needs hierarchy-match.
	assert.True(t, CanExportReports(lead, 1, nil))
	assert.True(t, CanExportReports(lead, 1, matching))
	assert.False(t, CanExportReports(lead, 1, foreign))

	assert.False(t, CanExportReports(member, 1, nil))
}

func TestDivisionAndDepartmentManage(t *testing.T) {
	divisionLead := makeUser(1, 1, models.RoleDivisionLead)
	divisionLead.DivisionID = uintPtr(10)

	assert.True(t, CanManageDivision(divisionLead, &models.Division{ID: 10, CompanyID: 1}))
	assert.False(t, CanManageDivision(divisionLead, &models.Division{ID: 11, CompanyID: 1}))

	dept := &models.Department{ID: 20, CompanyID: 1, DivisionID: uintPtr(10)}
	assert.True(t, CanManageDepartment(divisionLead, dept))

	orphanDept := &models.Department{ID: 21, CompanyID: 1}
	assert.False(t, CanManageDepartment(divisionLead, orphanDept))
}
