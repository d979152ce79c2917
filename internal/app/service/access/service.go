package access

import (
	"context"
	"errors"

	contentrulesvc "github.com/fatflowers/membership/internal/app/service/contentrule"
	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	"github.com/fatflowers/membership/pkg/logctx"
	types "github.com/fatflowers/membership/pkg/types"

	"go.uber.org/zap"
)

// AdminChecker is the host-delegated capability check. Administrators bypass
// content restrictions entirely.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) bool
}

type noAdmins struct{}

func (noAdmins) IsAdmin(context.Context, string) bool { return false }

// NewNoAdmins is the default checker for hosts that route admin traffic
// elsewhere: nobody bypasses restrictions.
func NewNoAdmins() AdminChecker { return noAdmins{} }

// Service evaluates whether a user may view a content item. It is a pure
// read path, safe to call on every content render.
type Service struct {
	rules  *contentrulesvc.Service
	ledger *membershipsvc.Service
	admins AdminChecker
	log    *zap.SugaredLogger
}

func NewService(rules *contentrulesvc.Service, ledger *membershipsvc.Service, admins AdminChecker, log *zap.SugaredLogger) *Service {
	return &Service{rules: rules, ledger: ledger, admins: admins, log: log}
}

// CanAccess decides accessibility. An empty userID means anonymous. Content
// with no rules is open to everyone; otherwise the user needs an active,
// unexpired membership to any one of the restricting plans.
func (s *Service) CanAccess(ctx context.Context, contentID, userID string) (bool, error) {
	if userID != "" && s.admins.IsAdmin(ctx, userID) {
		return true, nil
	}

	planIDs, err := s.rules.PlanIDsByContent(ctx, contentID)
	if err != nil {
		return false, err
	}
	if len(planIDs) == 0 {
		return true, nil // not restricted
	}
	if userID == "" {
		return false, nil // not logged in
	}

	for _, planID := range planIDs {
		has, err := s.ledger.HasActivePlan(ctx, userID, planID)
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// RestrictionReason explains a denial. ReasonNone means access is allowed.
// Paused is reported over expired when the user's memberships across the
// restricting plans include both, since it decides which message the user
// sees.
func (s *Service) RestrictionReason(ctx context.Context, contentID, userID string) (types.RestrictionReason, error) {
	if userID != "" && s.admins.IsAdmin(ctx, userID) {
		return types.ReasonNone, nil
	}

	planIDs, err := s.rules.PlanIDsByContent(ctx, contentID)
	if err != nil {
		return types.ReasonNone, err
	}
	if len(planIDs) == 0 {
		return types.ReasonNone, nil
	}
	if userID == "" {
		return types.ReasonNotLoggedIn, nil
	}

	// An active membership on any one restricting plan grants access, no
	// matter what state the user's memberships on the other plans are in.
	for _, planID := range planIDs {
		has, err := s.ledger.HasActivePlan(ctx, userID, planID)
		if err != nil {
			return types.ReasonNone, err
		}
		if has {
			return types.ReasonNone, nil
		}
	}

	sawExpired := false
	for _, planID := range planIDs {
		m, err := s.ledger.ByUserAndPlan(ctx, userID, planID)
		if err != nil {
			if errors.Is(err, membershipsvc.ErrMembershipNotFound) {
				// never held this plan, or the plan behind the rule is gone
				continue
			}
			return types.ReasonNone, err
		}
		if m.Status == types.MembershipStatusPaused {
			return types.ReasonPaused, nil
		}
		if m.IsExpired() {
			sawExpired = true
		}
	}

	if sawExpired {
		return types.ReasonExpired, nil
	}
	return types.ReasonNoAccess, nil
}

// RequiredPlans returns the plan ids restricting a content item.
func (s *Service) RequiredPlans(ctx context.Context, contentID string) ([]string, error) {
	return s.rules.PlanIDsByContent(ctx, contentID)
}

// IsRestricted reports whether any rule applies to the content item.
func (s *Service) IsRestricted(ctx context.Context, contentID string) (bool, error) {
	restricted, err := s.rules.IsRestricted(ctx, contentID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to check restriction for %s: %v", contentID, err)
		return false, err
	}
	return restricted, nil
}
