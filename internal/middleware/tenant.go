package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// TenantMiddleware resolves the active company from the request and
// installs an immutable tenant context for everything downstream.
type TenantMiddleware struct {
	companies *services.CompanyService
	cfg       config.TenancyConfig
}

func NewTenantMiddleware(companies *services.CompanyService, cfg config.TenancyConfig) *TenantMiddleware {
	return &TenantMiddleware{companies: companies, cfg: cfg}
}

// Resolve finds the company by slug and aborts with 404 when it cannot,
// or 423 when the company is suspended. Slug sources, in order: the
// :company path parameter, the :company_slug path parameter, and the
// request's subdomain when the deployment runs in subdomain mode.
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := m.extractSlug(c)
		if slug == "" {
			utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
			c.Abort()
			return
		}

		company, err := m.companies.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusNotFound, "Tenant not found", nil)
			c.Abort()
			return
		}
		// Any non-active status keeps the workspace closed, not just
		// an explicit suspension.
		if company.Status != models.CompanyStatusActive {
			code, message := "tenant_not_active", "This workspace is not active yet"
			if company.Status == models.CompanyStatusSuspended {
				code, message = "tenant_suspended", "This workspace is suspended"
			}
			utils.SendErrorWithCode(c, http.StatusLocked, code, message)
			c.Abort()
			return
		}

		tenant.Install(c, tenant.NewContext(company))
		c.Next()
	}
}

func (m *TenantMiddleware) extractSlug(c *gin.Context) string {
	if slug := c.Param("company"); slug != "" {
		return slug
	}
	if slug := c.Param("company_slug"); slug != "" {
		return slug
	}
	if m.cfg.SlugMode == "subdomain" {
		return SubdomainSlug(c.Request.Host, m.cfg.PrimaryDomain)
	}
	return ""
}

// SubdomainSlug extracts a tenant slug from the host. A host equal to
// the primary domain carries no slug; "acme.<primary>" yields "acme".
func SubdomainSlug(host, primaryDomain string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	primaryDomain = strings.ToLower(strings.TrimSpace(primaryDomain))
	if host == primaryDomain || primaryDomain == "" {
		return ""
	}
	if !strings.HasSuffix(host, "."+primaryDomain) {
		return ""
	}
	prefix := strings.TrimSuffix(host, "."+primaryDomain)
	// Nested subdomains resolve to their first label.
	if i := strings.IndexByte(prefix, '.'); i >= 0 {
		prefix = prefix[:i]
	}
	return prefix
}
