package types

// DurationType describes how a plan's entitlement period is computed.
type DurationType string

const (
	DurationForever DurationType = "forever"
	DurationDays    DurationType = "days"
	DurationMonths  DurationType = "months"
	DurationYears   DurationType = "years"
)

func (d DurationType) Valid() bool {
	switch d {
	case DurationForever, DurationDays, DurationMonths, DurationYears:
		return true
	}
	return false
}

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusExpired   MembershipStatus = "expired"
	MembershipStatusCancelled MembershipStatus = "cancelled"
	MembershipStatusPaused    MembershipStatus = "paused"
)

// MembershipSource records how a membership was obtained.
type MembershipSource string

const (
	MembershipSourcePurchase     MembershipSource = "purchase"
	MembershipSourceSubscription MembershipSource = "subscription"
	MembershipSourceManual       MembershipSource = "manual"
	MembershipSourceImport       MembershipSource = "import"
)

// RestrictionReason is the denial reason reported by the access evaluator.
// ReasonNone means access is allowed.
type RestrictionReason string

const (
	ReasonNone        RestrictionReason = "none"
	ReasonNotLoggedIn RestrictionReason = "not_logged_in"
	ReasonExpired     RestrictionReason = "expired"
	ReasonPaused      RestrictionReason = "paused"
	ReasonNoAccess    RestrictionReason = "no_access"
)
