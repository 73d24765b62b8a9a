package inbox

// Protection implements the thread-protection policy: when enabled, a
// thread with more than one message may be mutated from a sender-scoped
// view only after its thread view has been opened at least once this
// session. Single-message threads are never gated.
type Protection struct {
	enabled bool
	visited map[string]bool
}

// NewProtection returns a tracker. The enabled flag comes from config
// and does not change during a session.
func NewProtection(enabled bool) *Protection {
	return &Protection{enabled: enabled, visited: make(map[string]bool)}
}

// Enabled reports whether the policy is active.
func (p *Protection) Enabled() bool {
	return p.enabled
}

// MarkVisited records that the thread's view has been opened.
func (p *Protection) MarkVisited(threadID string) {
	p.visited[threadID] = true
}

// Visited reports whether the thread's view has been opened this
// session.
func (p *Protection) Visited(threadID string) bool {
	return p.visited[threadID]
}

// Blocking returns the thread ids that gate the given targets: threads
// with more than one message that have not been reviewed. Empty when
// the policy is disabled or nothing blocks.
func (p *Protection) Blocking(targetIDs []string, idx *ThreadIndex) []string {
	if !p.enabled {
		return nil
	}
	var blocking []string
	seen := make(map[string]bool)
	for _, id := range targetIDs {
		tid, ok := idx.ThreadOf(id)
		if !ok || seen[tid] {
			continue
		}
		seen[tid] = true
		if idx.IsMultiMessage(tid) && !p.visited[tid] {
			blocking = append(blocking, tid)
		}
	}
	return blocking
}
