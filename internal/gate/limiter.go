package gate

import "github.com/kiranshivaraju/dandi/pkg/models"

// Capacity is the verdict of a Limiter. Remaining is only meaningful when Allowed.
type Capacity struct {
	Allowed   bool
	Remaining Remaining
}

// Limiter decides whether a key may consume one more unit.
type Limiter interface {
	CheckCapacity(key *models.APIKey) Capacity
}

// MonthlyLimiter enforces models.APIKey.MonthlyLimit when LimitMonthlyUsage is
// set. A key whose usage equals its limit is rejected.
type MonthlyLimiter struct{}

func (MonthlyLimiter) CheckCapacity(key *models.APIKey) Capacity {
	if !key.LimitMonthlyUsage {
		return Capacity{Allowed: true, Remaining: Unlimited}
	}
	if key.UsageCount >= key.MonthlyLimit {
		return Capacity{Allowed: false}
	}
	return Capacity{Allowed: true, Remaining: Count(key.MonthlyLimit - key.UsageCount)}
}

// RemainingAfter is the capacity left once usage has reached currentUsage.
func RemainingAfter(key *models.APIKey, currentUsage int) Remaining {
	if !key.LimitMonthlyUsage {
		return Unlimited
	}
	return Count(key.MonthlyLimit - currentUsage)
}
