package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

func whitelistRouter(db database.Database, company *models.Company) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewIPWhitelistMiddleware(services.NewAuditService(db))

	r := gin.New()
	install := func(c *gin.Context) {
		if company != nil {
			tenant.Install(c, tenant.NewContext(company))
		}
		c.Next()
	}
	r.GET("/ping", install, m.Enforce(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestWhitelistEmptyRulesAllowEverything(t *testing.T) {
	db := openMiddlewareDB(t)
	company := seedTenant(t, db, "acme", models.CompanyStatusActive)
	r := whitelistRouter(db, company)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:12345"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWhitelistRejectsUnlistedAddress(t *testing.T) {
	db := openMiddlewareDB(t)
	company := seedTenant(t, db, "acme", models.CompanyStatusActive)
	company.Setting.LoginIPWhitelist = models.StringList{"10.0.0.0/8"}
	require.NoError(t, db.DB().Save(company.Setting).Error)

	r := whitelistRouter(db, company)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:12345"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ip_not_allowed")

	// Rejection leaves an audit trail.
	var logs []models.AuditLog
	require.NoError(t, db.DB().Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "auth.ip_whitelist.rejected", logs[0].Event)
	assert.Equal(t, models.EntityCompany, logs[0].EntityKind)
}

func TestWhitelistAllowsListedCIDR(t *testing.T) {
	db := openMiddlewareDB(t)
	company := seedTenant(t, db, "acme", models.CompanyStatusActive)
	company.Setting.LoginIPWhitelist = models.StringList{"203.0.113.0/24"}
	require.NoError(t, db.DB().Save(company.Setting).Error)

	r := whitelistRouter(db, company)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:12345"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWhitelistSkippedWithoutTenant(t *testing.T) {
	db := openMiddlewareDB(t)
	r := whitelistRouter(db, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:12345"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
