package model

import "time"

// DashboardTaskLimit caps how many tasks the dashboard pulls for its
// statistics. Counts only reflect the first page of that size.
const DashboardTaskLimit = 100

// Stats are derived from an in-memory task slice and never persisted.
type Stats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

func ComputeStats(tasks []Task, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Status == TaskCompleted {
			s.Completed++
			continue
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// CompletionRate is Completed/Total in [0,1]; zero for an empty set.
func (s Stats) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}
