package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/middleware"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// respondServiceError maps service sentinels onto the HTTP error
// taxonomy. DuplicateWeekError is handled at the report handler, not
// here, because it is a redirect rather than an error.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.SendErrorResponse(c, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, services.ErrForbidden):
		utils.SendErrorResponse(c, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, services.ErrTenantSuspended):
		utils.SendErrorWithCode(c, http.StatusLocked, "tenant_suspended", "This workspace is suspended")
	case errors.Is(err, services.ErrReportLocked):
		utils.SendErrorWithCode(c, http.StatusForbidden, "report_locked", "Locked reports cannot be changed")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.SendErrorWithCode(c, http.StatusConflict, "invalid_transition", "The report is not in a state that allows this action")
	case errors.Is(err, services.ErrUserLimitReached):
		utils.SendErrorWithCode(c, http.StatusConflict, "user_limit_reached", "The company has reached its user limit")
	case errors.Is(err, services.ErrInvalidCredential):
		utils.SendErrorResponse(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, services.ErrInviteExpired):
		utils.SendErrorWithCode(c, http.StatusGone, "invite_expired", "The invitation has expired")
	default:
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "body", Message: err.Error()}})
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.SendErrorResponse(c, http.StatusNotFound, "Resource not found", nil)
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func queryUint(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}
