package utils

// SeenSet tracks (source, external_id) identity keys already observed during
// a run, so the same lot collected from two pages or categories is only
// processed once. It is owned by the orchestrator and passed into the fetch
// loop; the normalization core never touches it.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Add returns true when the key was newly added, false when it was a
// duplicate.
func (s *SeenSet) Add(source, externalID string) bool {
	key := source + "\x00" + externalID
	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether the key has already been observed.
func (s *SeenSet) Contains(source, externalID string) bool {
	_, exists := s.seen[source+"\x00"+externalID]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *SeenSet) Size() int {
	return len(s.seen)
}
