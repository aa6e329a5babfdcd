package integration

// DedupSet holds the destination-side identifying strings (deal titles or issue summaries)
// of one snapshot. Membership is exact and case-sensitive: "Fix bug" and "fix bug " are
// different keys.
type DedupSet struct {
	keys map[string]struct{}
}

// NewDedupSet creates an empty set sized for n keys
func NewDedupSet(n int) *DedupSet {
	return &DedupSet{keys: make(map[string]struct{}, n)}
}

// DealTitleSet builds the dedup set of a deal snapshot. Empty titles are dropped.
func DealTitleSet(deals []Deal) *DedupSet {
	set := NewDedupSet(len(deals))
	for _, deal := range deals {
		set.Add(deal.Title)
	}
	return set
}

// IssueSummarySet builds the dedup set of an issue snapshot. Empty summaries are dropped.
func IssueSummarySet(issues []Issue) *DedupSet {
	set := NewDedupSet(len(issues))
	for _, issue := range issues {
		set.Add(issue.Summary)
	}
	return set
}

// Add inserts a key. Empty keys are ignored.
func (s *DedupSet) Add(key string) {
	if key == "" {
		return
	}
	s.keys[key] = struct{}{}
}

// Contains reports whether key is present
func (s *DedupSet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of keys
func (s *DedupSet) Len() int {
	return len(s.keys)
}
