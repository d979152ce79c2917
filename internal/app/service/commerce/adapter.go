package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	eventlogsvc "github.com/fatflowers/membership/internal/app/service/eventlog"
	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/config"
	"github.com/fatflowers/membership/pkg/logctx"
	types "github.com/fatflowers/membership/pkg/types"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUnknownEventType = errors.New("unknown commerce event type")

// Adapter translates commerce lifecycle events into lifecycle engine calls
// through the plan-product index. A missing plan or membership mapping is
// logged and skipped, never raised back to the commerce platform.
type Adapter struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	plans  *plansvc.Service
	ledger *membershipsvc.Service
	events *eventlogsvc.Service
}

func NewAdapter(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, plans *plansvc.Service, ledger *membershipsvc.Service, events *eventlogsvc.Service) *Adapter {
	return &Adapter{cfg: cfg, db: db, log: log, plans: plans, ledger: ledger, events: events}
}

// HandleEvent dispatches one event. The returned error is reserved for
// malformed input (unknown type); per-item lifecycle failures are absorbed.
func (a *Adapter) HandleEvent(ctx context.Context, e *Event) (resErr error) {
	if e == nil {
		return fmt.Errorf("nil event")
	}

	entry := a.newLogEntry(ctx, e)
	a.events.Save(ctx, entry)

	defer func() {
		status := models.CommerceEventLogStatusHandled
		if resErr != nil {
			status = models.CommerceEventLogStatusHandleFailed
			resBytes, _ := json.Marshal(map[string]any{"error": resErr.Error()})
			res := datatypes.JSON(resBytes)
			entry.Result = &res
		}
		entry.Status = status
		a.events.Save(ctx, entry)
	}()

	switch e.Type {
	case EventOrderCompleted:
		if !a.cfg.Features.AutoGrantOnComplete {
			return nil
		}
		a.processOrder(ctx, e)
	case EventOrderProcessing:
		// only virtual orders grant at the processing stage
		if !e.Virtual {
			return nil
		}
		a.processOrder(ctx, e)
	case EventOrderRefunded:
		a.processRefund(ctx, e)
	case EventSubscriptionStatusChanged:
		a.processSubscriptionStatus(ctx, e)
	case EventSubscriptionRenewalComplete:
		a.processRenewal(ctx, e)
	case EventSubscriptionRenewalFailed:
		a.processRenewalFailure(ctx, e)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventType, e.Type)
	}
	return nil
}

func (a *Adapter) newLogEntry(ctx context.Context, e *Event) *models.CommerceEventLog {
	var traceID string
	if v, ok := ctx.Value("traceID").(string); ok {
		traceID = v
	}
	dataBytes, _ := json.Marshal(e)
	return &models.CommerceEventLog{
		EventType: string(e.Type),
		UserID: func() *string {
			if e.UserID == "" {
				return nil
			}
			return lo.ToPtr(e.UserID)
		}(),
		TraceID:        traceID,
		OrderID:        emptyToNil(e.OrderID),
		SubscriptionID: emptyToNil(e.SubscriptionID),
		Data:           datatypes.JSON(dataBytes),
		Status:         models.CommerceEventLogStatusReceived,
	}
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// processOrder grants memberships for every plan mapped to a purchased
// product. The per-order marker makes retried webhooks no-ops.
func (a *Adapter) processOrder(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	if e.UserID == "" || e.OrderID == "" {
		log.Warnw("order event missing user or order id", "event", e.Type)
		return
	}

	processed, err := a.orderProcessed(ctx, e.OrderID)
	if err != nil {
		log.Errorw("order_marker_check_failed", "order_id", e.OrderID, "err", err)
		return
	}
	if processed {
		log.Infow("order already processed, skipping", "order_id", e.OrderID)
		return
	}

	granted := false
	for _, item := range e.Items {
		planIDs, err := a.plans.PlanIDsByProduct(ctx, item.ProductID)
		if err != nil {
			log.Errorw("plan_resolution_failed", "product_id", item.ProductID, "err", err)
			continue
		}
		for _, planID := range planIDs {
			id, err := a.ledger.Grant(ctx, &membershipsvc.GrantRequest{
				UserID:  e.UserID,
				PlanID:  planID,
				Source:  types.MembershipSourcePurchase,
				OrderID: &e.OrderID,
			})
			if err != nil {
				log.Warnw("grant_skipped", "plan_id", planID, "user_id", e.UserID, "err", err)
				continue
			}
			granted = true
			log.Infow("membership granted from order", "order_id", e.OrderID, "membership_id", id)
		}
	}

	if granted {
		if err := a.markOrderProcessed(ctx, e.OrderID); err != nil {
			log.Errorw("order_marker_set_failed", "order_id", e.OrderID, "err", err)
		}
	}
}

func (a *Adapter) processRefund(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	if !a.cfg.Features.RevokeOnRefund {
		return
	}
	if e.UserID == "" {
		log.Warnw("refund event missing user id", "order_id", e.OrderID)
		return
	}

	for _, item := range e.Items {
		planIDs, err := a.plans.PlanIDsByProduct(ctx, item.ProductID)
		if err != nil {
			log.Errorw("plan_resolution_failed", "product_id", item.ProductID, "err", err)
			continue
		}
		for _, planID := range planIDs {
			revoked, err := a.ledger.Revoke(ctx, e.UserID, planID)
			if err != nil {
				log.Errorw("revoke_failed", "plan_id", planID, "user_id", e.UserID, "err", err)
				continue
			}
			if revoked {
				log.Infow("membership revoked from refund", "order_id", e.OrderID, "plan_id", planID)
			}
		}
	}
}

func (a *Adapter) processSubscriptionStatus(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	switch e.Status {
	case SubscriptionActive:
		a.activateSubscription(ctx, e)
	case SubscriptionOnHold:
		if m, err := a.ledger.BySubscription(ctx, e.SubscriptionID); err == nil {
			if _, err := a.ledger.Pause(ctx, m.ID); err != nil {
				log.Errorw("pause_failed", "membership_id", m.ID, "err", err)
			}
		}
	case SubscriptionCancelled:
		a.cancelSubscription(ctx, e)
	case SubscriptionExpired:
		if m, err := a.ledger.BySubscription(ctx, e.SubscriptionID); err == nil {
			if _, err := a.ledger.Expire(ctx, m.ID); err != nil {
				log.Errorw("expire_failed", "membership_id", m.ID, "err", err)
			}
		}
	case SubscriptionPendingCancel:
		// membership stays active until the subscription actually ends
	default:
		log.Warnw("unknown subscription status", "status", e.Status, "subscription_id", e.SubscriptionID)
	}
}

func (a *Adapter) activateSubscription(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	if e.UserID == "" {
		log.Warnw("subscription event missing user id", "subscription_id", e.SubscriptionID)
		return
	}

	for _, item := range e.Items {
		planIDs, err := a.plans.PlanIDsByProduct(ctx, item.ProductID)
		if err != nil {
			log.Errorw("plan_resolution_failed", "product_id", item.ProductID, "err", err)
			continue
		}
		for _, planID := range planIDs {
			existing, err := a.ledger.BySubscription(ctx, e.SubscriptionID)
			if err == nil && existing.PlanID == planID {
				if _, err := a.ledger.Resume(ctx, existing.ID); err != nil {
					log.Errorw("resume_failed", "membership_id", existing.ID, "err", err)
				}
				continue
			}
			if _, err := a.ledger.Grant(ctx, &membershipsvc.GrantRequest{
				UserID:         e.UserID,
				PlanID:         planID,
				Source:         types.MembershipSourceSubscription,
				SubscriptionID: &e.SubscriptionID,
			}); err != nil {
				log.Warnw("grant_skipped", "plan_id", planID, "user_id", e.UserID, "err", err)
			}
		}
	}
}

// cancelSubscription revokes by (user, plan) rather than by the membership
// tied to the subscription id, matching the long-standing behavior.
func (a *Adapter) cancelSubscription(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	if e.UserID == "" {
		log.Warnw("subscription event missing user id", "subscription_id", e.SubscriptionID)
		return
	}
	for _, item := range e.Items {
		planIDs, err := a.plans.PlanIDsByProduct(ctx, item.ProductID)
		if err != nil {
			log.Errorw("plan_resolution_failed", "product_id", item.ProductID, "err", err)
			continue
		}
		for _, planID := range planIDs {
			if _, err := a.ledger.Revoke(ctx, e.UserID, planID); err != nil {
				log.Errorw("revoke_failed", "plan_id", planID, "user_id", e.UserID, "err", err)
			}
		}
	}
}

// processRenewal stacks another duration period onto the subscription's
// membership from its current end date.
func (a *Adapter) processRenewal(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	m, err := a.ledger.BySubscription(ctx, e.SubscriptionID)
	if err != nil {
		log.Warnw("renewal for unknown subscription", "subscription_id", e.SubscriptionID)
		return
	}
	if _, err := a.ledger.Extend(ctx, m.ID); err != nil {
		log.Errorw("extend_failed", "membership_id", m.ID, "err", err)
	}
}

func (a *Adapter) processRenewalFailure(ctx context.Context, e *Event) {
	log := logctx.FromCtx(ctx, a.log)
	m, err := a.ledger.BySubscription(ctx, e.SubscriptionID)
	if err != nil {
		log.Warnw("renewal failure for unknown subscription", "subscription_id", e.SubscriptionID)
		return
	}
	if _, err := a.ledger.Pause(ctx, m.ID); err != nil {
		log.Errorw("pause_failed", "membership_id", m.ID, "err", err)
	}
}

func (a *Adapter) orderProcessed(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.OrderMarker{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order marker: %w", err)
	}
	return count > 0, nil
}

func (a *Adapter) markOrderProcessed(ctx context.Context, orderID string) error {
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderMarker{OrderID: orderID}).Error
	if err != nil {
		return fmt.Errorf("failed to set order marker: %w", err)
	}
	return nil
}
