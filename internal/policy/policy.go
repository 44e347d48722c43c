// Package policy holds the authorization rules. Every function is a pure
// predicate over the acting user and the target entity; callers map a false
// result to a 403.
package policy

import (
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

// sameCompany is the precondition for every tenant-scoped rule.
func sameCompany(user *models.User, companyID uint) bool {
	return user != nil && user.BelongsTo(companyID)
}

func eq(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// CanViewDivision allows any member of the owning company.
func CanViewDivision(user *models.User, division *models.Division) bool {
	return sameCompany(user, division.CompanyID)
}

// CanManageDivision allows the company admin, or a division lead assigned to
// exactly this division. Leads never inherit authority over sibling or
// descendant units.
func CanManageDivision(user *models.User, division *models.Division) bool {
	if !sameCompany(user, division.CompanyID) {
		return false
	}
	switch user.Role {
	case models.RoleCompanyAdmin:
		return true
	case models.RoleDivisionLead:
		return user.DivisionID != nil && *user.DivisionID == division.ID
	}
	return false
}

// CanViewDepartment allows any member of the owning company.
func CanViewDepartment(user *models.User, department *models.Department) bool {
	return sameCompany(user, department.CompanyID)
}

// CanManageDepartment allows the company admin, the lead of the containing
// division, or the manager of exactly this department.
func CanManageDepartment(user *models.User, department *models.Department) bool {
	if !sameCompany(user, department.CompanyID) {
		return false
	}
	switch user.Role {
	case models.RoleCompanyAdmin:
		return true
	case models.RoleDivisionLead:
		return eq(user.DivisionID, department.DivisionID)
	case models.RoleDepartmentManager:
		return user.DepartmentID != nil && *user.DepartmentID == department.ID
	}
	return false
}

// CanViewTeam allows any member of the owning company.
func CanViewTeam(user *models.User, team *models.Team) bool {
	return sameCompany(user, team.CompanyID)
}

// CanManageTeam allows the company admin, the containing division lead or
// department manager, or the lead of exactly this team.
func CanManageTeam(user *models.User, team *models.Team) bool {
	if !sameCompany(user, team.CompanyID) {
		return false
	}
	switch user.Role {
	case models.RoleCompanyAdmin:
		return true
	case models.RoleDivisionLead:
		return eq(user.DivisionID, team.DivisionID)
	case models.RoleDepartmentManager:
		return eq(user.DepartmentID, team.DepartmentID)
	case models.RoleTeamLead:
		return user.TeamID != nil && *user.TeamID == team.ID
	}
	return false
}

// hasReportAuthority reports whether user holds hierarchy authority over the
// report: company admin within the tenant, or a lead/manager whose assigned
// unit id exactly matches the report's snapshotted unit id.
func hasReportAuthority(user *models.User, report *models.WeeklyReport) bool {
	if !sameCompany(user, report.CompanyID) {
		return false
	}
	switch user.Role {
	case models.RoleCompanyAdmin:
		return true
	case models.RoleDivisionLead:
		return eq(user.DivisionID, report.DivisionID)
	case models.RoleDepartmentManager:
		return eq(user.DepartmentID, report.DepartmentID)
	case models.RoleTeamLead:
		return eq(user.TeamID, report.TeamID)
	}
	return false
}

// CanViewReport allows the author and anyone with hierarchy authority.
func CanViewReport(user *models.User, report *models.WeeklyReport) bool {
	if !sameCompany(user, report.CompanyID) {
		return false
	}
	if user.ID == report.UserID {
		return true
	}
	return hasReportAuthority(user, report)
}

// CanUpdateReport governs mutation of a report's summary and items. Nobody
// may update a locked report. The author may update while the report is a
// draft; hierarchy authority covers draft and submitted.
func CanUpdateReport(user *models.User, report *models.WeeklyReport) bool {
	if report.Status == models.ReportStatusLocked {
		return false
	}
	if user.ID == report.UserID && sameCompany(user, report.CompanyID) {
		return report.Status == models.ReportStatusDraft
	}
	return hasReportAuthority(user, report)
}

// CanSubmitReport allows submission only from draft, by the author or a
// manager with hierarchy authority.
func CanSubmitReport(user *models.User, report *models.WeeklyReport) bool {
	if report.Status != models.ReportStatusDraft {
		return false
	}
	if user.ID == report.UserID && sameCompany(user, report.CompanyID) {
		return true
	}
	return hasReportAuthority(user, report)
}

// CanReopenReport allows the submitted -> draft reverse transition. Only a
// manager with hierarchy authority may reopen, never the report's own
// author, and there is nothing to reopen once the report is a draft or
// locked.
func CanReopenReport(user *models.User, report *models.WeeklyReport) bool {
	if report.Status != models.ReportStatusSubmitted {
		return false
	}
	if user.ID == report.UserID {
		return false
	}
	return hasReportAuthority(user, report)
}

// CanLockReport allows the terminal transition, from submitted only, by a
// manager with hierarchy authority.
func CanLockReport(user *models.User, report *models.WeeklyReport) bool {
	if report.Status != models.ReportStatusSubmitted {
		return false
	}
	return hasReportAuthority(user, report)
}

// CanDeleteReport mirrors update: the author while draft, hierarchy
// authority until the report is locked.
func CanDeleteReport(user *models.User, report *models.WeeklyReport) bool {
	if report.Status == models.ReportStatusLocked {
		return false
	}
	if user.ID == report.UserID && sameCompany(user, report.CompanyID) {
		return report.Status == models.ReportStatusDraft
	}
	return hasReportAuthority(user, report)
}

// CanExportReports is the coarser export permission. The company admin may
// export anything in the tenant; leads and managers may run bulk exports
// (report == nil) but exporting a specific report still requires
// hierarchy-match.
func CanExportReports(user *models.User, companyID uint, report *models.WeeklyReport) bool {
	if !sameCompany(user, companyID) {
		return false
	}
	if user.Role == models.RoleCompanyAdmin {
		return true
	}
	switch user.Role {
	case models.RoleDivisionLead, models.RoleDepartmentManager, models.RoleTeamLead:
		if report == nil {
			return true
		}
		return hasReportAuthority(user, report)
	}
	return false
}
