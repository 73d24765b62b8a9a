package inbox

import "github.com/zeroterm/zeroterm/internal/mail"

// ActionScope is the exact blast radius of a requested archive or
// delete: the ids that will be mutated, plus a warning summary of
// thread members that will NOT be touched because they belong to other
// grouping keys.
//
// ExcludedOtherSenderCount counts thread members whose grouping key
// differs from the acting key. Under address grouping that is exactly
// "messages from other senders"; under domain grouping it means
// "messages from other domains", so intra-domain conversations raise
// no warning. One rule, both modes.
type ActionScope struct {
	TargetIDs                []string
	ExcludedOtherSenderCount int
	AffectedThreadCount      int
	RequiresConfirmation     bool
}

// SingleMessageScope computes the scope of acting on one message from
// the group or email list. The target is only that message; other
// members of its thread are reported, never mutated. No confirmation
// is required.
func SingleMessageScope(m mail.Message, mode Mode, idx *ThreadIndex) ActionScope {
	scope := ActionScope{
		TargetIDs:           []string{m.ID},
		AffectedThreadCount: 1,
	}
	actingKey := GroupKey(m, mode)
	if t, ok := idx.Thread(m.ThreadID); ok {
		for i := range t.Messages {
			if GroupKey(t.Messages[i], mode) != actingKey {
				scope.ExcludedOtherSenderCount++
			}
		}
	}
	return scope
}

// GroupScope computes the scope of a bulk action on every message of a
// sender group. For each thread the group touches, members with a
// different grouping key are counted as excluded. Bulk actions always
// require confirmation.
func GroupScope(g SenderGroup, mode Mode, idx *ThreadIndex) ActionScope {
	scope := ActionScope{
		TargetIDs:            g.IDs(),
		RequiresConfirmation: true,
	}
	inScope := make(map[string]bool, len(g.Messages))
	for i := range g.Messages {
		inScope[g.Messages[i].ID] = true
	}
	counted := make(map[string]bool)
	for i := range g.Messages {
		tid := g.Messages[i].ThreadID
		if counted[tid] {
			continue
		}
		counted[tid] = true
		scope.AffectedThreadCount++
		t, ok := idx.Thread(tid)
		if !ok {
			continue
		}
		for j := range t.Messages {
			if !inScope[t.Messages[j].ID] && GroupKey(t.Messages[j], mode) != g.Key {
				scope.ExcludedOtherSenderCount++
			}
		}
	}
	return scope
}

// SelectionScope computes the scope of a bulk action on an explicit
// set of selected messages. Thread members outside the selection are
// counted as excluded when their grouping key differs from every
// selected member of that thread. Selections are bulk actions, so
// confirmation is always required.
func SelectionScope(selected []mail.Message, mode Mode, idx *ThreadIndex) ActionScope {
	scope := ActionScope{RequiresConfirmation: true}
	inScope := make(map[string]bool, len(selected))
	keys := make(map[string]bool, len(selected))
	for i := range selected {
		inScope[selected[i].ID] = true
		keys[GroupKey(selected[i], mode)] = true
	}
	counted := make(map[string]bool)
	for i := range selected {
		scope.TargetIDs = append(scope.TargetIDs, selected[i].ID)
		tid := selected[i].ThreadID
		if counted[tid] {
			continue
		}
		counted[tid] = true
		scope.AffectedThreadCount++
		t, ok := idx.Thread(tid)
		if !ok {
			continue
		}
		for j := range t.Messages {
			if !inScope[t.Messages[j].ID] && !keys[GroupKey(t.Messages[j], mode)] {
				scope.ExcludedOtherSenderCount++
			}
		}
	}
	return scope
}

// ThreadScope computes the scope of acting on an entire thread from
// the thread view: every member, all senders included. Nothing is
// excluded, so the warning count is always zero, and confirmation is
// always required regardless of thread size.
func ThreadScope(threadID string, idx *ThreadIndex) (ActionScope, bool) {
	t, ok := idx.Thread(threadID)
	if !ok {
		return ActionScope{}, false
	}
	return ActionScope{
		TargetIDs:            t.IDs(),
		AffectedThreadCount:  1,
		RequiresConfirmation: true,
	}, true
}
