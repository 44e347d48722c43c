package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Division{}))
	return db
}

func TestScopedFiltersToActiveTenant(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&models.Division{CompanyID: 1, Name: "Platform", Slug: "platform"}).Error)
	require.NoError(t, db.Create(&models.Division{CompanyID: 2, Name: "Sales", Slug: "sales"}).Error)

	ctx := WithContext(context.Background(), &Context{CompanyID: 1, Slug: "acme"})

	var divisions []models.Division
	require.NoError(t, Scoped(db, ctx).Find(&divisions).Error)
	require.Len(t, divisions, 1)
	assert.Equal(t, "platform", divisions[0].Slug)
}

func TestScopedWithoutTenantIsUnfiltered(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&models.Division{CompanyID: 1, Name: "Platform", Slug: "platform"}).Error)
	require.NoError(t, db.Create(&models.Division{CompanyID: 2, Name: "Sales", Slug: "sales"}).Error)

	// No tenant resolved: the HQ surface sees everything.
	var divisions []models.Division
	require.NoError(t, Scoped(db, context.Background()).Find(&divisions).Error)
	assert.Len(t, divisions, 2)
}

func TestStamp(t *testing.T) {
	ctx := WithContext(context.Background(), &Context{CompanyID: 7})

	division := models.Division{Name: "Ops", Slug: "ops"}
	Stamp(ctx, &division.CompanyID)
	assert.Equal(t, uint(7), division.CompanyID)

	// Explicitly set ids are left alone.
	other := models.Division{CompanyID: 3}
	Stamp(ctx, &other.CompanyID)
	assert.Equal(t, uint(3), other.CompanyID)

	// No active tenant: no-op.
	blank := models.Division{}
	Stamp(context.Background(), &blank.CompanyID)
	assert.Zero(t, blank.CompanyID)
}

func TestFromContextNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, FromContext(nil))
}
