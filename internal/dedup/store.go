// Package dedup suppresses repeat deliveries of the same opportunity.
//
// Two interchangeable variants implement the same admission contract: a
// TTL map with a periodic sweep for long-term dedup, and a size-bounded
// recency cache for short-cooldown anti-spam. A deployment picks one per
// identifier space, never both.
package dedup

// Store gates delivery of an opportunity identifier.
type Store interface {
	// Admit reports whether the identifier may be delivered now. It returns
	// true when the identifier has never been seen, or was last admitted
	// longer ago than the store's window; in both cases the stored timestamp
	// is refreshed. A blank identifier is always rejected without mutating
	// state. The check-and-refresh is atomic per identifier.
	Admit(id string) bool

	// Size returns the number of tracked identifiers.
	Size() int
}
