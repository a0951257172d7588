package rules

import (
	"context"
	"fmt"

	"github.com/bnema/streakwatch/internal/logging"
)

//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks

// Engine abstracts the declarative blocking-rule backend. The primary
// implementation proxies to the extension's dynamic rule API over the
// native-messaging bridge; FileEngine keeps a local JSON export.
type Engine interface {
	// ListDynamicRules returns every currently installed dynamic rule,
	// including rules outside the reserved id ranges.
	ListDynamicRules(ctx context.Context) ([]Rule, error)
	// UpdateDynamicRules removes the rules with the given ids and installs
	// the new ones, atomically where the backend supports it.
	UpdateDynamicRules(ctx context.Context, removeIDs []int, add []Rule) error
}

// Reconcile converges the engine's installed rules onto the given set: it
// removes every installed rule whose id lies in a reserved range, then
// installs the freshly compiled rules. Re-running with the same input yields
// the same final rule set regardless of what was installed before.
//
// The returned error is informational; callers on the event path log it and
// carry on, because a missing rule engine must never break detection
// bookkeeping.
func Reconcile(ctx context.Context, engine Engine, compiled []Rule) error {
	installed, err := engine.ListDynamicRules(ctx)
	if err != nil {
		return fmt.Errorf("list dynamic rules: %w", err)
	}

	var removeIDs []int
	for _, r := range installed {
		if InReservedRange(r.ID) {
			removeIDs = append(removeIDs, r.ID)
		}
	}

	if err := engine.UpdateDynamicRules(ctx, removeIDs, compiled); err != nil {
		return fmt.Errorf("update dynamic rules: %w", err)
	}

	return nil
}

// ReconcileBestEffort runs Reconcile and degrades engine failures to a
// logged warning, matching the fail-open contract of the event path.
func ReconcileBestEffort(ctx context.Context, engine Engine, compiled []Rule) {
	if engine == nil {
		return
	}
	if err := Reconcile(ctx, engine, compiled); err != nil {
		logging.Warn(fmt.Sprintf("rule reconciliation skipped: %v", err))
	}
}
