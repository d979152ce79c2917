package handlers

import (
	"errors"
	"net/http"

	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	statssvc "github.com/fatflowers/membership/internal/app/service/stats"
	"github.com/fatflowers/membership/internal/app/service/sweeper"
	"github.com/fatflowers/membership/pkg/response"

	"github.com/gin-gonic/gin"
)

func membershipErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, membershipsvc.ErrMembershipNotFound), errors.Is(err, plansvc.ErrPlanNotFound):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case errors.Is(err, membershipsvc.ErrPlanInactive):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

// @Summary      Grant membership
// @Description  Grants the plan to the user. Re-granting an active (user,
// @Description  plan) pair extends the existing membership instead of
// @Description  creating a duplicate.
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body membership.GrantRequest true "grant"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/grant [post]
func ApiGrantMembership(svc *membershipsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membershipsvc.GrantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		id, err := svc.Grant(c.Request.Context(), &req)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"membership_id": id}))
	}
}

type revokeRequest struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

// @Summary      Revoke membership
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body revokeRequest true "revoke"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/revoke [post]
func ApiRevokeMembership(svc *membershipsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req revokeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.PlanID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "user_id and plan_id are required"))
			return
		}
		revoked, err := svc.Revoke(c.Request.Context(), req.UserID, req.PlanID)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]bool{"revoked": revoked}))
	}
}

type membershipActionRequest struct {
	MembershipID string `json:"membership_id"`
}

func membershipAction(action func(c *gin.Context, id string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membershipActionRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.MembershipID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "membership_id is required"))
			return
		}
		action(c, req.MembershipID)
	}
}

// @Summary      Pause membership
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body membershipActionRequest true "membership"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/pause [post]
func ApiPauseMembership(svc *membershipsvc.Service) gin.HandlerFunc {
	return membershipAction(func(c *gin.Context, id string) {
		ok, err := svc.Pause(c.Request.Context(), id)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]bool{"paused": ok}))
	})
}

// @Summary      Resume membership
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body membershipActionRequest true "membership"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/resume [post]
func ApiResumeMembership(svc *membershipsvc.Service) gin.HandlerFunc {
	return membershipAction(func(c *gin.Context, id string) {
		ok, err := svc.Resume(c.Request.Context(), id)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]bool{"resumed": ok}))
	})
}

// @Summary      Extend membership
// @Description  Stacks one plan duration onto the current end date.
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body membershipActionRequest true "membership"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/extend [post]
func ApiExtendMembership(svc *membershipsvc.Service) gin.HandlerFunc {
	return membershipAction(func(c *gin.Context, id string) {
		mid, err := svc.Extend(c.Request.Context(), id)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"membership_id": mid}))
	})
}

// @Summary      Scan memberships
// @Description  Paginated admin listing with filters.
// @Tags         Memberships
// @Accept       json
// @Produce      json
// @Param        body body membership.ScanMembershipsRequest true "scan request"
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/scan [post]
func ApiScanMemberships(svc *membershipsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membershipsvc.ScanMembershipsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanMemberships(c.Request.Context(), &req)
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List a user's memberships
// @Tags         Memberships
// @Produce      json
// @Param        id path string true "user id"
// @Param        active_only query bool false "only active memberships"
// @Success      200 {object} map[string]any
// @Router       /api/v1/users/{id}/memberships [get]
func ApiUserMemberships(svc *membershipsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListByUser(c.Request.Context(), c.Param("id"), c.Query("active_only") == "true")
		if err != nil {
			membershipErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      Trigger an expiration sweep
// @Tags         Memberships
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/sweep [post]
func ApiRunSweep(sw *sweeper.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		expired, err := sw.RunOnce(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int{"expired": expired}))
	}
}

// @Summary      Membership statistics overview
// @Tags         Memberships
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /api/v1/admin/memberships/stats [get]
func ApiMembershipStats(svc *statssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Overview(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

func RegisterMembershipRoutes(r gin.IRouter, svc *membershipsvc.Service, sw *sweeper.Sweeper, stats *statssvc.Service) {
	r.POST("/memberships/grant", ApiGrantMembership(svc))
	r.POST("/memberships/revoke", ApiRevokeMembership(svc))
	r.POST("/memberships/pause", ApiPauseMembership(svc))
	r.POST("/memberships/resume", ApiResumeMembership(svc))
	r.POST("/memberships/extend", ApiExtendMembership(svc))
	r.POST("/memberships/scan", ApiScanMemberships(svc))
	r.POST("/memberships/sweep", ApiRunSweep(sw))
	r.GET("/memberships/stats", ApiMembershipStats(stats))
}

func RegisterUserRoutes(r gin.IRouter, svc *membershipsvc.Service) {
	r.GET("/users/:id/memberships", ApiUserMemberships(svc))
}
