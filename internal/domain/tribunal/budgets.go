package tribunal

import (
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
)

// fallbackBudget is used when a tribunal's class has no configured budget.
// Deliberately the most conservative profile in the default set.
var fallbackBudget = config.BudgetConfig{
	RequestsPerMinute: 3,
	RequestsPerHour:   20,
	RequestsPerDay:    100,
	Cooldown:          30 * time.Minute,
}

// BudgetResolver resolves the effective request budget for a tribunal
// code: a per-code override wins, then the class default, then a
// conservative fallback.
type BudgetResolver struct {
	registry *Registry
	cfg      config.RateLimitConfig
}

// NewBudgetResolver builds a resolver over the given registry and
// rate-limit configuration.
func NewBudgetResolver(registry *Registry, cfg config.RateLimitConfig) *BudgetResolver {
	return &BudgetResolver{registry: registry, cfg: cfg}
}

// Resolve returns the budget in effect for code.
func (r *BudgetResolver) Resolve(code string) config.BudgetConfig {
	if b, ok := r.cfg.Overrides[code]; ok {
		return b
	}
	if cfg, err := r.registry.Get(code); err == nil {
		if b, ok := r.cfg.ClassBudgets[string(cfg.Class)]; ok {
			return b
		}
	}
	return fallbackBudget
}
