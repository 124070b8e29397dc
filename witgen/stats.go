package witgen

// Stats accumulates row-loop progress counters for diagnostics; the VM
// processor does not log them (spec.md §4.2's
// "Stats threaded explicitly, not globals", per the original's
// RefCell<Stats> replaced here with a struct the caller owns and passes
// around instead of a package-level mutable).
type Stats struct {
	RowsProcessed       int
	IdentitiesEvaluated int
	Assignments         int
	RangeConstraints    int
	LoopsDetected       int
	LoopsRejected       int
	QueriesResolved     int
	Finalizations       int
}

// ResetAndGet returns a copy of the current counters and zeroes them,
// marking a reporting boundary (e.g. once per progress log line) without
// losing the running totals a caller may want to keep separately.
func (s *Stats) ResetAndGet() Stats {
	snapshot := *s
	*s = Stats{}
	return snapshot
}

// Add accumulates another Stats' counters into s, used when a machine's
// inner Stats need folding into the outer VM processor's totals.
func (s *Stats) Add(other Stats) {
	s.RowsProcessed += other.RowsProcessed
	s.IdentitiesEvaluated += other.IdentitiesEvaluated
	s.Assignments += other.Assignments
	s.RangeConstraints += other.RangeConstraints
	s.LoopsDetected += other.LoopsDetected
	s.LoopsRejected += other.LoopsRejected
	s.QueriesResolved += other.QueriesResolved
	s.Finalizations += other.Finalizations
}
