package differ

import (
	"github.com/agentstation/utc"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
)

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields skips fields matching any of the patterns ("money",
// "reputation.*").
func WithIgnoredFields(patterns ...string) Option {
	return func(d *differ) {
		d.ignorePatterns = append(d.ignorePatterns, patterns...)
	}
}

// WithAuthority sets the trust policy stamped on each discrepancy.
func WithAuthority(a authority.Authority) Option {
	return func(d *differ) {
		if a != nil {
			d.authority = a
		}
	}
}

// WithCutover sets the date wiki edits are measured against.
func WithCutover(cutover utc.Time) Option {
	return func(d *differ) {
		d.cutover = cutover
	}
}

// WithClock sets the time source used for days-since-edit.
func WithClock(now func() utc.Time) Option {
	return func(d *differ) {
		if now != nil {
			d.now = now
		}
	}
}

// WithTextCoverRatio sets the share of an item name's tokens that objective
// prose must contain to count as naming the item.
func WithTextCoverRatio(ratio float64) Option {
	return func(d *differ) {
		d.items = aliases.NewItemMatcher(ratio)
	}
}

// WithLargeItemPool sets the item count from which an objective is treated as
// "any item from a pool" and not compared when the wiki lists none.
func WithLargeItemPool(n int) Option {
	return func(d *differ) {
		if n > 0 {
			d.largeItemPool = n
		}
	}
}

// WithReputationTolerance sets the accepted absolute difference for
// reputation rewards.
func WithReputationTolerance(tolerance float64) Option {
	return func(d *differ) {
		if tolerance >= 0 {
			d.repTolerance = tolerance
		}
	}
}
