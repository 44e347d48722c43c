package tenant

import (
	"context"

	"gorm.io/gorm"
)

// Scoped filters a query to the active tenant. With no tenant in ctx the
// query runs unfiltered; that is the escape hatch for the HQ administrative
// surface, which operates without a resolved tenant.
func Scoped(db *gorm.DB, ctx context.Context) *gorm.DB {
	tc := FromContext(ctx)
	if tc == nil {
		return db
	}
	return db.Where("company_id = ?", tc.CompanyID)
}

// ScopedTo filters a query to an explicit tenant context. Callers that
// already hold a *Context avoid the ctx lookup.
func ScopedTo(db *gorm.DB, tc *Context) *gorm.DB {
	if tc == nil {
		return db
	}
	return db.Where("company_id = ?", tc.CompanyID)
}

// Stamp assigns the active tenant's company id to a new row's company_id
// field unless the caller already set one. No-op without an active tenant.
func Stamp(ctx context.Context, companyID *uint) {
	tc := FromContext(ctx)
	if tc == nil {
		return
	}
	if *companyID == 0 {
		*companyID = tc.CompanyID
	}
}
