package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

func openMiddlewareDB(t *testing.T) database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.CompanySetting{},
		&models.User{},
		&models.AuditLog{},
	))
	return database.NewGormWrapper(db)
}

func seedTenant(t *testing.T, db database.Database, slug string, status models.CompanyStatus) *models.Company {
	t.Helper()

	company := models.Company{Name: slug, Slug: slug, Status: status, UserLimit: 10}
	require.NoError(t, db.DB().Create(&company).Error)
	setting := models.CompanySetting{CompanyID: company.ID}
	require.NoError(t, db.DB().Create(&setting).Error)
	company.Setting = &setting
	return &company
}

func tenantRouter(db database.Database, cfg config.TenancyConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewTenantMiddleware(services.NewCompanyService(db), cfg)

	r := gin.New()
	r.GET("/api/v1/:company/ping", m.Resolve(), func(c *gin.Context) {
		tc := tenant.FromGin(c)
		c.JSON(http.StatusOK, gin.H{"company_id": tc.CompanyID, "slug": tc.Slug})
	})
	r.GET("/ping", m.Resolve(), func(c *gin.Context) {
		tc := tenant.FromGin(c)
		c.JSON(http.StatusOK, gin.H{"slug": tc.Slug})
	})
	return r
}

func TestResolveTenantByPathSlug(t *testing.T) {
	db := openMiddlewareDB(t)
	seedTenant(t, db, "acme", models.CompanyStatusActive)
	r := tenantRouter(db, config.TenancyConfig{SlugMode: "path"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/acme/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)
}

func TestResolveUnknownTenantIs404(t *testing.T) {
	db := openMiddlewareDB(t)
	r := tenantRouter(db, config.TenancyConfig{SlugMode: "path"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ghost/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveSuspendedTenantIs423(t *testing.T) {
	db := openMiddlewareDB(t)
	seedTenant(t, db, "frozen", models.CompanyStatusSuspended)
	r := tenantRouter(db, config.TenancyConfig{SlugMode: "path"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/frozen/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_suspended")
}

func TestResolveOnboardingTenantIs423(t *testing.T) {
	db := openMiddlewareDB(t)
	seedTenant(t, db, "newco", models.CompanyStatusOnboarding)
	r := tenantRouter(db, config.TenancyConfig{SlugMode: "path"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/newco/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_not_active")
}

func TestResolveTenantBySubdomain(t *testing.T) {
	db := openMiddlewareDB(t)
	seedTenant(t, db, "acme", models.CompanyStatusActive)
	r := tenantRouter(db, config.TenancyConfig{
		SlugMode:      "subdomain",
		PrimaryDomain: "weeklyreport.local",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Host = "acme.weeklyreport.local"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)
}

func TestSubdomainSlug(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"weeklyreport.local", ""},
		{"acme.weeklyreport.local", "acme"},
		{"acme.weeklyreport.local:8080", "acme"},
		{"ACME.weeklyreport.local", "acme"},
		{"deep.acme.weeklyreport.local", "deep"},
		{"otherdomain.io", ""},
		{"weeklyreport.local.evil.io", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SubdomainSlug(tc.host, "weeklyreport.local"), "host %q", tc.host)
	}
}
