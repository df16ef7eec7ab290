package common

// Priority ranks both novelties and schedule entries.  Ordering is
// urgent > high > medium > low.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// priorityRank orders priorities for sorting; lower sorts first.
var priorityRank = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

// Rank returns the sort position of p.  Unknown values rank last.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}
