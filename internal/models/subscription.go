package models

// Plan is a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// Unlimited is the AI generation limit of plans without a cap.
const Unlimited = -1

// AIGenerationLimit returns the monthly number of AI generations the plan
// allows, or Unlimited.
func (p Plan) AIGenerationLimit() int {
	switch p {
	case PlanBasic:
		return 100
	case PlanPro:
		return Unlimited
	default:
		return 10
	}
}

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription is a shop's plan. Billing happens elsewhere; this record
// only mirrors its outcome.
type Subscription struct {
	ShopID    string             `db:"shop_id"`
	Plan      Plan               `db:"plan"`
	Status    SubscriptionStatus `db:"status"`
	RenewsAt  int64              `db:"renews_at"`
	CreatedAt int64              `db:"created_at"`
	UpdatedAt int64              `db:"updated_at"`
}

// EffectivePlan is the plan whose limits apply. Subscriptions that are not
// active fall back to the free tier.
func (s *Subscription) EffectivePlan() Plan {
	if s == nil || s.Status != SubscriptionActive {
		return PlanFree
	}
	return s.Plan
}
