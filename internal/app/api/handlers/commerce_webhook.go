package handlers

import (
	"net/http"

	commercesvc "github.com/fatflowers/membership/internal/app/service/commerce"
	"github.com/fatflowers/membership/pkg/logctx"
	"github.com/fatflowers/membership/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Commerce event webhook
// @Description  Ingests order and subscription lifecycle events from the
// @Description  commerce host. Handlers are idempotent; a missing plan or
// @Description  membership mapping never fails the delivery.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        event body commerce.Event true "commerce event"
// @Success      200 {object} map[string]any
// @Router       /api/v1/commerce/events [post]
func ApiCommerceEvent(adapter *commercesvc.Adapter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var e commercesvc.Event
		if err := c.ShouldBindJSON(&e); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		logctx.FromGin(c, log).Infow("commerce_event_received", "type", e.Type, "order_id", e.OrderID, "subscription_id", e.SubscriptionID)

		if err := adapter.HandleEvent(c.Request.Context(), &e); err != nil {
			logctx.FromGin(c, log).Errorw("commerce_event_rejected", "type", e.Type, "err", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterCommerceRoutes(r gin.IRouter, adapter *commercesvc.Adapter, log *zap.SugaredLogger) {
	r.POST("/events", ApiCommerceEvent(adapter, log))
}
