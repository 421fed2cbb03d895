// Package retention decides which snapshots fall outside the keep window.
package retention

// Policy keeps the newest Keep snapshots and evicts the rest.
type Policy struct {
	Keep int
}

// NewPolicy clamps counts below 1 up to 1 so the newest snapshot always
// survives a prune.
func NewPolicy(keep int) Policy {
	if keep < 1 {
		keep = 1
	}
	return Policy{Keep: keep}
}

// Plan returns the entries to evict. The input must be sorted oldest
// first; the result is the oldest len(sorted)-Keep entries in that same
// order, or nil when nothing exceeds the window.
func (p Policy) Plan(sorted []string) []string {
	if len(sorted) <= p.Keep {
		return nil
	}
	return sorted[:len(sorted)-p.Keep]
}
