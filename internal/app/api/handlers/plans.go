package handlers

import (
	"errors"
	"net/http"

	contentrulesvc "github.com/fatflowers/membership/internal/app/service/contentrule"
	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	"github.com/fatflowers/membership/pkg/response"

	"github.com/gin-gonic/gin"
)

func planErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, plansvc.ErrPlanNotFound):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case errors.Is(err, plansvc.ErrValidation), errors.Is(err, plansvc.ErrDuplicateSlug):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

// @Summary      Create plan
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        plan body plan.CreatePlanRequest true "plan"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans [post]
func ApiCreatePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plansvc.CreatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		p, err := svc.Create(c.Request.Context(), &req)
		if err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      List plans
// @Tags         Plans
// @Produce      json
// @Param        active_only query bool false "only active plans"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans [get]
func ApiListPlans(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("active_only") == "true"
		plans, err := svc.List(c.Request.Context(), activeOnly)
		if err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}

// @Summary      Get plan
// @Tags         Plans
// @Produce      json
// @Param        id path string true "plan id"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans/{id} [get]
func ApiGetPlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      Update plan
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        id path string true "plan id"
// @Param        plan body plan.UpdatePlanRequest true "fields to update"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans/{id} [put]
func ApiUpdatePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plansvc.UpdatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		p, err := svc.Update(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      Delete plan
// @Description  Deletes the plan and cascades removal of its product
// @Description  associations and content rules. Membership history remains.
// @Tags         Plans
// @Produce      json
// @Param        id path string true "plan id"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans/{id} [delete]
func ApiDeletePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type syncProductsRequest struct {
	Products []plansvc.ProductRef `json:"products"`
}

// @Summary      Replace plan product associations
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        id path string true "plan id"
// @Param        body body syncProductsRequest true "product set"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans/{id}/products [put]
func ApiSyncPlanProducts(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncProductsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := svc.SyncProducts(c.Request.Context(), c.Param("id"), req.Products); err != nil {
			planErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type syncPlanContentRequest struct {
	ContentType string   `json:"content_type"`
	ContentIDs  []string `json:"content_ids"`
}

// @Summary      Replace the content items restricted to a plan
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        id path string true "plan id"
// @Param        body body syncPlanContentRequest true "content set"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/plans/{id}/content [put]
func ApiSyncPlanContent(plans *plansvc.Service, rules *contentrulesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncPlanContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		planID := c.Param("id")
		if _, err := plans.GetByID(c.Request.Context(), planID); err != nil {
			planErrorResponse(c, err)
			return
		}
		if err := rules.SyncByPlan(c.Request.Context(), planID, req.ContentType, req.ContentIDs); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterPlanRoutes(r gin.IRouter, plans *plansvc.Service, rules *contentrulesvc.Service) {
	r.POST("/plans", ApiCreatePlan(plans))
	r.GET("/plans", ApiListPlans(plans))
	r.GET("/plans/:id", ApiGetPlan(plans))
	r.PUT("/plans/:id", ApiUpdatePlan(plans))
	r.DELETE("/plans/:id", ApiDeletePlan(plans))
	r.PUT("/plans/:id/products", ApiSyncPlanProducts(plans))
	r.PUT("/plans/:id/content", ApiSyncPlanContent(plans, rules))
}
