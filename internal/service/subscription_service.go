package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/salonmate/salonmate/internal/metrics"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

// UsagePeriodLayout formats the UTC calendar month AI usage is counted in.
const UsagePeriodLayout = "2006-01"

// UsagePeriod returns the usage period containing t.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format(UsagePeriodLayout)
}

// SubscriptionUsage is the shop's plan with this month's AI usage.
type SubscriptionUsage struct {
	Subscription *models.Subscription
	Plan         models.Plan
	Limit        int
	Used         int
	Period       string
}

// SubscriptionService reports plans and meters AI generations.
type SubscriptionService struct {
	store storage.Store
	now   func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService with the given storage backend.
func NewSubscriptionService(store storage.Store) *SubscriptionService {
	return &SubscriptionService{store: store, now: time.Now}
}

// Get returns the shop's subscription and current usage.
func (s *SubscriptionService) Get(ctx context.Context, shopID string) (*SubscriptionUsage, error) {
	sub, err := s.store.GetSubscription(ctx, shopID)
	if err != nil {
		return nil, err
	}
	period := UsagePeriod(s.now())
	used, err := s.store.GetAIUsage(ctx, shopID, period)
	if err != nil {
		return nil, err
	}
	plan := sub.EffectivePlan()
	return &SubscriptionUsage{
		Subscription: sub,
		Plan:         plan,
		Limit:        plan.AIGenerationLimit(),
		Used:         used,
		Period:       period,
	}, nil
}

// Generate runs gen if the shop has AI generations left this period and
// records one generation when gen succeeds. kind labels the metric.
//
// The quota is checked before calling gen so that exhausted shops do not
// reach the provider, and consumed atomically afterwards so that concurrent
// requests cannot exceed the limit.
func (s *SubscriptionService) Generate(ctx context.Context, shopID, kind string, gen func() error) error {
	usage, err := s.Get(ctx, shopID)
	if err != nil {
		return err
	}
	if usage.Limit != models.Unlimited && usage.Used >= usage.Limit {
		metrics.AIGenerations.WithLabelValues(kind, "quota_exceeded").Inc()
		slog.Warn("AI quota exhausted", "shop_id", shopID, "plan", usage.Plan, "used", usage.Used)
		return models.ErrQuotaExceeded
	}

	if err := gen(); err != nil {
		metrics.AIGenerations.WithLabelValues(kind, "error").Inc()
		logFailure("AI generation failed", err, "shop_id", shopID, "kind", kind)
		return err
	}

	if err := s.store.ConsumeAIGeneration(ctx, shopID, usage.Period, usage.Limit); err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			metrics.AIGenerations.WithLabelValues(kind, "quota_exceeded").Inc()
		}
		return err
	}
	metrics.AIGenerations.WithLabelValues(kind, "ok").Inc()
	return nil
}
