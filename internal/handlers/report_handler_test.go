package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

func openHandlerDB(t *testing.T) database.Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{}, &models.CompanySetting{},
		&models.Division{}, &models.Department{}, &models.Team{},
		&models.User{}, &models.WeeklyReport{}, &models.WeeklyReportItem{},
		&models.Holiday{}, &models.AuditLog{},
	))
	return database.NewGormWrapper(db)
}

type reportAPI struct {
	db      database.Database
	router  *gin.Engine
	company *models.Company
	author  *models.User
}

// newReportAPI wires the report routes behind a stub auth layer that
// injects the author directly, so tests exercise routing and response
// mapping without minting tokens.
func newReportAPI(t *testing.T) *reportAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openHandlerDB(t)

	company := &models.Company{Name: "Acme", Slug: "acme", Status: models.CompanyStatusActive, UserLimit: 50}
	require.NoError(t, db.DB().Create(company).Error)
	require.NoError(t, db.DB().Create(&models.CompanySetting{CompanyID: company.ID}).Error)

	author := &models.User{
		UUID:      uuid.New().String(),
		CompanyID: &company.ID,
		Email:     "author@acme.test",
		Role:      models.RoleMember,
		IsActive:  true,
	}
	require.NoError(t, db.DB().Create(author).Error)

	audit := services.NewAuditService(db)
	handler := NewReportHandler(
		services.NewReportService(db, audit),
		services.NewExportService(db),
	)

	router := gin.New()
	group := router.Group("/api/v1/:company")
	group.Use(func(c *gin.Context) {
		tenant.Install(c, tenant.NewContext(company))
		c.Set("current_user", author)
		c.Next()
	})
	group.POST("/reports", handler.Create)
	group.GET("/reports/:id", handler.Show)
	group.POST("/reports/:id/submit", handler.Submit)
	group.POST("/reports/:id/lock", handler.Lock)

	return &reportAPI{db: db, router: router, company: company, author: author}
}

func (a *reportAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestCreateReportDuplicateWeekRedirects(t *testing.T) {
	api := newReportAPI(t)

	payload := gin.H{"work_year": 2026, "work_week": 10, "summary": "first"}
	w := api.do(t, http.MethodPost, "/api/v1/acme/reports", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.WeeklyReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(t, http.MethodPost, "/api/v1/acme/reports", payload)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t,
		fmt.Sprintf("/api/v1/acme/reports/%d/edit", created.Data.ID),
		w.Header().Get("Location"))

	var count int64
	api.db.DB().Model(&models.WeeklyReport{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateReportRejectsInvalidWeek(t *testing.T) {
	api := newReportAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/acme/reports", gin.H{"work_year": 2026, "work_week": 54})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitThenLockMapsWorkflowErrors(t *testing.T) {
	api := newReportAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/acme/reports", gin.H{"work_year": 2026, "work_week": 11})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.WeeklyReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := fmt.Sprintf("/api/v1/acme/reports/%d", created.Data.ID)

	// lock from draft is an invalid transition, not a permission problem
	w = api.do(t, http.MethodPost, base+"/lock", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a plain member cannot lock their own submitted report
	w = api.do(t, http.MethodPost, base+"/lock", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestShowReportNotFound(t *testing.T) {
	api := newReportAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/acme/reports/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
