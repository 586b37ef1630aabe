package scheduler

// Tracker is the set of theory keys known to be wrong within one investigation.
// It is owned by a single investigation and is not safe for concurrent use.
type Tracker struct {
	falsified map[string]struct{}
	order     []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{falsified: make(map[string]struct{})}
}

// MarkFalsified records that the theory with the given key was refuted.
// It returns false if the key was already falsified.
func (t *Tracker) MarkFalsified(key string) bool {
	if _, ok := t.falsified[key]; ok {
		return false
	}
	t.falsified[key] = struct{}{}
	t.order = append(t.order, key)
	return true
}

// IsFalsified reports whether the theory with the given key was refuted.
func (t *Tracker) IsFalsified(key string) bool {
	_, ok := t.falsified[key]
	return ok
}

// Len returns the number of falsified theories.
func (t *Tracker) Len() int {
	return len(t.order)
}

// Keys returns the falsified keys in the order they were falsified.
func (t *Tracker) Keys() []string {
	return append([]string(nil), t.order...)
}
