package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	RegisterHealthRoutes(r)
	v1 := r.Group("/api/v1")
	RegisterAccessRoutes(v1, nil)
	RegisterUserRoutes(v1, nil)

	admin := v1.Group("/admin")
	RegisterPlanRoutes(admin, nil, nil)
	RegisterContentRuleRoutes(admin, nil)
	RegisterMembershipRoutes(admin, nil, nil, nil)

	RegisterCommerceRoutes(v1.Group("/commerce"), nil, nil)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("GET /healthz"))
	require.True(t, contains("GET /api/v1/access/check"))
	require.True(t, contains("GET /api/v1/users/:id/memberships"))
	require.True(t, contains("POST /api/v1/admin/plans"))
	require.True(t, contains("GET /api/v1/admin/plans"))
	require.True(t, contains("GET /api/v1/admin/plans/:id"))
	require.True(t, contains("PUT /api/v1/admin/plans/:id"))
	require.True(t, contains("DELETE /api/v1/admin/plans/:id"))
	require.True(t, contains("PUT /api/v1/admin/plans/:id/products"))
	require.True(t, contains("PUT /api/v1/admin/plans/:id/content"))
	require.True(t, contains("PUT /api/v1/admin/content/:id/rules"))
	require.True(t, contains("DELETE /api/v1/admin/content/:id/rules"))
	require.True(t, contains("POST /api/v1/admin/memberships/grant"))
	require.True(t, contains("POST /api/v1/admin/memberships/revoke"))
	require.True(t, contains("POST /api/v1/admin/memberships/pause"))
	require.True(t, contains("POST /api/v1/admin/memberships/resume"))
	require.True(t, contains("POST /api/v1/admin/memberships/extend"))
	require.True(t, contains("POST /api/v1/admin/memberships/scan"))
	require.True(t, contains("POST /api/v1/admin/memberships/sweep"))
	require.True(t, contains("GET /api/v1/admin/memberships/stats"))
	require.True(t, contains("POST /api/v1/commerce/events"))
}
