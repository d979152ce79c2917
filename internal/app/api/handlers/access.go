package handlers

import (
	"net/http"

	accesssvc "github.com/fatflowers/membership/internal/app/service/access"
	contentrulesvc "github.com/fatflowers/membership/internal/app/service/contentrule"
	"github.com/fatflowers/membership/pkg/response"

	"github.com/gin-gonic/gin"
)

type accessCheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// @Summary      Check content access
// @Description  Decides whether the user may view the content item and, if
// @Description  not, why. An absent user_id means anonymous.
// @Tags         Access
// @Produce      json
// @Param        content_id query string true "content item id"
// @Param        user_id query string false "user id (empty = anonymous)"
// @Success      200 {object} map[string]any
// @Router       /api/v1/access/check [get]
func ApiAccessCheck(svc *accesssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		contentID := c.Query("content_id")
		if contentID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing content_id"))
			return
		}
		userID := c.Query("user_id")

		allowed, err := svc.CanAccess(c.Request.Context(), contentID, userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		reason, err := svc.RestrictionReason(c.Request.Context(), contentID, userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(accessCheckResult{Allowed: allowed, Reason: string(reason)}))
	}
}

type syncContentRulesRequest struct {
	ContentType string   `json:"content_type"`
	PlanIDs     []string `json:"plan_ids"`
}

// @Summary      Replace a content item's restriction list
// @Tags         Access
// @Accept       json
// @Produce      json
// @Param        id path string true "content item id"
// @Param        body body syncContentRulesRequest true "restricting plans"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/content/{id}/rules [put]
func ApiSyncContentRules(rules *contentrulesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncContentRulesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := rules.SyncByContent(c.Request.Context(), c.Param("id"), req.ContentType, req.PlanIDs); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Remove all rules for a content item
// @Tags         Access
// @Produce      json
// @Param        id path string true "content item id"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/content/{id}/rules [delete]
func ApiRemoveContentRules(rules *contentrulesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rules.RemoveByContent(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterAccessRoutes(r gin.IRouter, svc *accesssvc.Service) {
	r.GET("/access/check", ApiAccessCheck(svc))
}

func RegisterContentRuleRoutes(r gin.IRouter, rules *contentrulesvc.Service) {
	r.PUT("/content/:id/rules", ApiSyncContentRules(rules))
	r.DELETE("/content/:id/rules", ApiRemoveContentRules(rules))
}
