package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

func openTestDB(t *testing.T) database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.CompanySetting{},
		&models.Division{},
		&models.Department{},
		&models.Team{},
		&models.User{},
		&models.WeeklyReport{},
		&models.WeeklyReportItem{},
		&models.Holiday{},
		&models.AuditLog{},
	))
	return database.NewGormWrapper(db)
}

func testLogger(t *testing.T) utils.Logger {
	t.Helper()
	require.NoError(t, utils.InitLogger(&utils.LogConfig{Level: "error", Format: "json"}))
	return utils.GetLogger()
}

func seedCompany(t *testing.T, db database.Database, id uint, slug string) *models.Company {
	t.Helper()

	company := models.Company{
		Name:      slug,
		Slug:      slug,
		Status:    models.CompanyStatusActive,
		UserLimit: 50,
	}
	company.ID = id
	require.NoError(t, db.DB().Create(&company).Error)

	setting := models.CompanySetting{CompanyID: company.ID}
	require.NoError(t, db.DB().Create(&setting).Error)
	company.Setting = &setting
	return &company
}

func seedUser(t *testing.T, db database.Database, companyID uint, email string, role models.Role, teamID *uint) *models.User {
	t.Helper()

	user := models.User{
		UUID:      email,
		CompanyID: &companyID,
		Email:     email,
		Role:      role,
		TeamID:    teamID,
		IsActive:  true,
	}
	require.NoError(t, db.DB().Create(&user).Error)
	return &user
}

func tenantCtx(company *models.Company) context.Context {
	return tenant.WithContext(context.Background(), tenant.NewContext(company))
}

func onboard(t *testing.T, db database.Database, companyID uint) {
	t.Helper()
	require.NoError(t, NewCompanyService(db).Onboard(context.Background(), companyID))
}
