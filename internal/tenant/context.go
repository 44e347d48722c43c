// Package tenant carries the resolved tenant through a request and scopes
// database queries to it.
package tenant

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

// GinKey is the gin context key under which the resolved tenant is stored.
const GinKey = "tenant_context"

type contextKey struct{}

// Context is an immutable snapshot of the resolved tenant. It is built once
// by the resolution middleware and is the only way downstream code learns
// which tenant a request belongs to without re-querying.
type Context struct {
	CompanyID uint
	Slug      string
	Settings  models.CompanySetting
}

// NewContext snapshots a company and its settings into a tenant Context.
func NewContext(company *models.Company) *Context {
	tc := &Context{
		CompanyID: company.ID,
		Slug:      company.Slug,
	}
	if company.Setting != nil {
		tc.Settings = *company.Setting
	}
	return tc
}

// Install stores the tenant context in both the gin context and the
// request's context.Context so services below the handler layer can reach
// it without a gin dependency.
func Install(c *gin.Context, tc *Context) {
	c.Set(GinKey, tc)
	ctx := context.WithValue(c.Request.Context(), contextKey{}, tc)
	c.Request = c.Request.WithContext(ctx)
}

// FromGin returns the tenant context for the request, or nil when no tenant
// was resolved (HQ surface, public routes).
func FromGin(c *gin.Context) *Context {
	if v, exists := c.Get(GinKey); exists {
		if tc, ok := v.(*Context); ok {
			return tc
		}
	}
	return nil
}

// FromContext returns the tenant context stored in ctx, or nil.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	if tc, ok := ctx.Value(contextKey{}).(*Context); ok {
		return tc
	}
	return nil
}

// WithContext returns a context.Context carrying tc. Used by jobs and tests
// that run outside the HTTP stack.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}
