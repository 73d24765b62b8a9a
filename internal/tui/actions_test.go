package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zeroterm/zeroterm/internal/mail"
	"github.com/zeroterm/zeroterm/internal/mailops"
)

func TestSingleMessageActionSkipsConfirmation(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter") // promo group
	m, cmd := pressCmd(t, m, "a")
	if m.modal != modalNone {
		t.Fatalf("modal = %v, want none for single-message action", m.modal)
	}
	if !m.busy {
		t.Fatal("single action should go straight to execution")
	}

	m = drain(t, m, cmd)
	if m.busy {
		t.Error("busy should clear when the action resolves")
	}
	if _, ok := m.store.Get("p1"); ok {
		t.Error("p1 should be removed after archive")
	}
	if m.store.Len() != 4 {
		t.Errorf("store len = %d, want 4", m.store.Len())
	}
	if len(m.undoStack) != 1 {
		t.Errorf("undo stack len = %d, want 1", len(m.undoStack))
	}
	if !strings.Contains(m.flashMessage, "Archived 1") {
		t.Errorf("flash = %q, want archive confirmation", m.flashMessage)
	}
}

func TestBulkActionRequiresConfirmation(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "A") // promo group selected
	if m.modal != modalConfirmAction {
		t.Fatalf("modal = %v, want confirmation", m.modal)
	}
	if m.pending == nil {
		t.Fatal("pending action missing")
	}
	if got := len(m.pending.scope.TargetIDs); got != 2 {
		t.Errorf("scope targets = %d, want 2", got)
	}

	m = press(t, m, "n")
	if m.modal != modalNone || m.pending != nil {
		t.Error("cancel should dismiss the pending action")
	}
	if m.store.Len() != 5 {
		t.Errorf("cancel mutated the store: len = %d", m.store.Len())
	}
}

func TestBulkActionConfirmExecutes(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "A")
	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)

	if m.store.Len() != 3 {
		t.Errorf("store len = %d, want 3", m.store.Len())
	}
	if _, ok := m.store.Get("p1"); ok {
		t.Error("p1 should be gone")
	}
	if _, ok := m.store.Get("p2"); ok {
		t.Error("p2 should be gone")
	}
	if m.groups[0].Key != "alice@corp.com" {
		t.Errorf("first group = %q, want alice@corp.com", m.groups[0].Key)
	}
}

func TestBulkScopeReportsOtherSenders(t *testing.T) {
	m := newBuilder().build(t)

	// Alice's conversation includes a reply from Bob; bulk-archiving
	// alice must leave it alone and say so.
	m = press(t, m, "j", "A")
	if m.pending == nil {
		t.Fatal("pending action missing")
	}
	scope := m.pending.scope
	if got := len(scope.TargetIDs); got != 1 {
		t.Errorf("targets = %d, want 1", got)
	}
	if scope.ExcludedOtherSenderCount != 1 {
		t.Errorf("excluded = %d, want 1", scope.ExcludedOtherSenderCount)
	}

	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)
	if _, ok := m.store.Get("b1"); !ok {
		t.Error("bob's reply must never be touched by alice's bulk action")
	}
}

func TestThreadActionTargetsWholeConversation(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "j", "enter", "enter") // into alice's conversation
	if m.level != levelThread {
		t.Fatalf("level = %v, want thread", m.level)
	}

	m = press(t, m, "D")
	if m.modal != modalConfirmAction {
		t.Fatal("thread action should always confirm")
	}
	if got := len(m.pending.scope.TargetIDs); got != 2 {
		t.Errorf("targets = %d, want whole conversation (2)", got)
	}
	if m.pending.scope.ExcludedOtherSenderCount != 0 {
		t.Errorf("excluded = %d, want 0 from thread view", m.pending.scope.ExcludedOtherSenderCount)
	}

	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)

	if m.store.Len() != 3 {
		t.Errorf("store len = %d, want 3", m.store.Len())
	}
	// Both the thread and alice's group are gone; navigation must
	// have popped back to a view that still exists.
	if m.level != levelGroups {
		t.Errorf("level = %v, want groups after the conversation emptied", m.level)
	}
}

func TestThreadViewRejectsSingleMessageKeys(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "j", "enter", "enter", "a")
	if m.busy || m.modal != modalNone {
		t.Error("lowercase keys must not act in the thread view")
	}
	if m.store.Len() != 5 {
		t.Errorf("store len = %d, want 5", m.store.Len())
	}
	if !strings.Contains(m.flashMessage, "whole conversation") {
		t.Errorf("flash = %q, want hint about A/D", m.flashMessage)
	}
}

func TestProtectionBlocksUnreviewedConversation(t *testing.T) {
	m := newBuilder().withProtection().build(t)

	m = press(t, m, "j", "A")
	if m.modal != modalNone {
		t.Fatal("blocked action must not reach the confirmation modal")
	}
	if !strings.Contains(m.flashMessage, "unreviewed") {
		t.Errorf("flash = %q, want unreviewed-conversation hint", m.flashMessage)
	}

	// Reviewing the conversation unblocks it.
	m = press(t, m, "enter", "enter", "q", "q", "A")
	if m.modal != modalConfirmAction {
		t.Error("action should be allowed after the conversation was reviewed")
	}
}

func TestProtectionIgnoresSingleMessageThreads(t *testing.T) {
	m := newBuilder().withProtection().build(t)

	m = press(t, m, "enter") // promo group: standalone messages only
	m, _ = pressCmd(t, m, "a")
	if !m.busy {
		t.Error("single-message threads need no review")
	}
}

func TestPartialFailureKeepsFailedListed(t *testing.T) {
	m := newBuilder().withFailing("p2").build(t)

	m = press(t, m, "A")
	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)

	if _, ok := m.store.Get("p1"); ok {
		t.Error("p1 succeeded and should be removed")
	}
	if _, ok := m.store.Get("p2"); !ok {
		t.Error("p2 failed and must remain listed")
	}
	if !m.failed["p2"] {
		t.Error("p2 should carry the failure marker")
	}
	if !strings.Contains(m.flashMessage, "failed") {
		t.Errorf("flash = %q, want failure notice", m.flashMessage)
	}
	if len(m.undoStack) != 1 || len(m.undoStack[0].ids) != 1 {
		t.Fatalf("undo stack should record only the succeeded id")
	}
}

func TestUndoRestoresMessages(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "A")
	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)
	if m.store.Len() != 3 {
		t.Fatalf("setup failed: store len = %d", m.store.Len())
	}

	m = press(t, m, "u")
	if m.modal != modalUndoHistory {
		t.Fatalf("modal = %v, want undo history", m.modal)
	}
	m, cmd = pressCmd(t, m, "enter")
	m = drain(t, m, cmd)

	if m.store.Len() != 5 {
		t.Errorf("store len after undo = %d, want 5", m.store.Len())
	}
	if len(m.undoStack) != 0 {
		t.Errorf("undo stack len = %d, want 0", len(m.undoStack))
	}
}

func TestUndoWithEmptyStack(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "u")
	if !strings.Contains(m.flashMessage, "Nothing to undo") {
		t.Errorf("flash = %q, want nothing-to-undo", m.flashMessage)
	}
}

func TestBusyRejectsAllInput(t *testing.T) {
	m := newBuilder().build(t)
	m.busy = true

	before := m.cursor
	m = press(t, m, "j", "A", "q")
	if m.cursor != before || m.modal != modalNone {
		t.Error("input must be rejected while an operation is in flight")
	}
	if !strings.Contains(m.flashMessage, "Working") {
		t.Errorf("flash = %q, want busy notice", m.flashMessage)
	}
}

func TestTransportErrorKeepsViewAndStore(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter")
	result := actionDoneMsg{
		verb:      verbArchive,
		ids:       []string{"p1"},
		err:       &mailops.TransportError{Op: "archive", Err: errors.New("connection reset")},
		requestID: m.actionRequestID,
	}
	next, _ := m.Update(result)
	m = next.(Model)

	if m.store.Len() != 5 {
		t.Errorf("transport error mutated the store: len = %d", m.store.Len())
	}
	if m.level != levelEmails {
		t.Errorf("level = %v, want unchanged emails view", m.level)
	}
	if m.err == nil {
		t.Error("transport error should surface as a banner")
	}
}

func TestStaleActionResultIgnored(t *testing.T) {
	m := newBuilder().build(t)

	stale := actionDoneMsg{
		verb:      verbArchive,
		ids:       []string{"p1"},
		requestID: m.actionRequestID + 1,
	}
	next, _ := m.Update(stale)
	m = next.(Model)

	if m.store.Len() != 5 {
		t.Errorf("stale result mutated the store: len = %d", m.store.Len())
	}
}

func TestSelectionToggleAndAction(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter") // promo group, two messages
	m = press(t, m, " ")     // select p1, cursor advances
	m = press(t, m, " ")     // select p2
	if len(m.selection) != 2 {
		t.Fatalf("selection len = %d, want 2", len(m.selection))
	}

	m = press(t, m, "A")
	if m.modal != modalConfirmAction {
		t.Fatal("selection action must go through confirmation")
	}
	if m.pending == nil || !strings.Contains(m.pending.title, "2 selected") {
		t.Fatalf("pending title should name the selection, got %+v", m.pending)
	}

	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)
	if m.store.Len() != 3 {
		t.Errorf("store len = %d, want 3 after archiving the selection", m.store.Len())
	}
	if len(m.selection) != 0 {
		t.Errorf("selection should be empty after the action, got %d", len(m.selection))
	}
}

func TestSelectionSpaceDeselects(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter", " ")
	m = press(t, m, "up", " ") // cursor back on p1, toggle off
	if len(m.selection) != 0 {
		t.Errorf("selection len = %d, want 0 after toggling off", len(m.selection))
	}
}

func TestSelectionClearKey(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter", " ", " ", "x")
	if len(m.selection) != 0 {
		t.Errorf("selection len = %d, want 0 after x", len(m.selection))
	}
	if !strings.Contains(m.flashMessage, "cleared") {
		t.Errorf("flash = %q, want cleared notice", m.flashMessage)
	}
}

func TestSelectionClearedOnGroupEntry(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter", " ", "q") // select p1, back out
	m = press(t, m, "j", "enter")      // into alice's group
	if len(m.selection) != 0 {
		t.Errorf("selection must not leak across groups, got %d", len(m.selection))
	}
}

func TestUndoHistoryRestoresChosenEntry(t *testing.T) {
	m := newBuilder().build(t)

	// Two separate archives: p1 first, then p2.
	m = press(t, m, "enter")
	m, cmd := pressCmd(t, m, "a")
	m = drain(t, m, cmd)
	m, cmd = pressCmd(t, m, "a")
	m = drain(t, m, cmd)
	if len(m.undoStack) != 2 {
		t.Fatalf("undo stack len = %d, want 2", len(m.undoStack))
	}

	// Pick the older entry (p1) from the history.
	m = press(t, m, "u", "j")
	m, cmd = pressCmd(t, m, "enter")
	m = drain(t, m, cmd)

	if _, ok := m.store.Get("p1"); !ok {
		t.Error("p1 should be restored")
	}
	if _, ok := m.store.Get("p2"); ok {
		t.Error("p2 should still be archived")
	}
	if len(m.undoStack) != 1 {
		t.Errorf("undo stack len = %d, want 1", len(m.undoStack))
	}
}

func TestFilteredBulkActionIgnoresHiddenMessages(t *testing.T) {
	m := newBuilder().build(t)

	// Alice's group holds only a conversation message. With the
	// singles filter on, the list is empty and bulk keys are inert.
	m = press(t, m, "j", "enter", "t", "t")
	if got := len(m.visibleEmails()); got != 0 {
		t.Fatalf("visible emails = %d, want 0 under singles filter", got)
	}

	m = press(t, m, "D")
	if m.modal != modalNone {
		t.Error("bulk delete must not confirm when the filter hides every row")
	}
	if m.pending != nil {
		t.Errorf("pending = %+v, want none", m.pending)
	}
	if m.store.Len() != 5 {
		t.Errorf("store len = %d, want untouched 5", m.store.Len())
	}
}

func TestFilteredBulkActionTargetsVisibleOnly(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s1 := mail.New("s1", "Dana <dana@corp.com>", "Receipt", "Order #41", base)
	s1.MessageID = "<s1@corp.com>"
	d1 := mail.New("d1", "Dana <dana@corp.com>", "Planning", "Draft attached", base.Add(1*time.Hour))
	d1.MessageID = "<d1@corp.com>"
	d2 := mail.New("d2", "Dana <dana@corp.com>", "Re: Planning", "Looks good", base.Add(2*time.Hour))
	d2.MessageID = "<d2@corp.com>"
	d2.InReplyTo = "<d1@corp.com>"
	msgs := []mail.Message{s1, d1, d2}
	mail.AssignThreads(msgs)

	m := newBuilder().withMessages(msgs...).build(t)

	// Threads-only filter hides the standalone receipt; bulk archive
	// must cover exactly what is on screen.
	m = press(t, m, "t", "A")
	if m.modal != modalConfirmAction {
		t.Fatal("filtered bulk action should still confirm")
	}
	if m.pending == nil || !strings.Contains(m.pending.title, "2 filtered") {
		t.Fatalf("pending title should name the filtered count, got %+v", m.pending)
	}
	if got := len(m.pending.scope.TargetIDs); got != 2 {
		t.Errorf("targets = %d, want the 2 visible conversation messages", got)
	}

	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)
	if _, ok := m.store.Get("s1"); !ok {
		t.Error("the hidden receipt must survive a filtered bulk archive")
	}
	if m.store.Len() != 1 {
		t.Errorf("store len = %d, want 1", m.store.Len())
	}
}

func TestUndoPartialFailureKeepsFailedOnStack(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "A")
	m, cmd := pressCmd(t, m, "y")
	m = drain(t, m, cmd)
	if len(m.undoStack) != 1 {
		t.Fatalf("setup: undo stack len = %d, want 1", len(m.undoStack))
	}

	// Start the restore, then hand the model a result where only p1
	// made it back.
	m = press(t, m, "u")
	m, _ = pressCmd(t, m, "enter")
	if len(m.undoStack) != 0 {
		t.Fatal("restore should consume the entry up front")
	}

	result := actionDoneMsg{
		verb:      verbArchive,
		ids:       []string{"p1", "p2"},
		undo:      true,
		err:       &mailops.PartialFailure{Op: "unarchive", Succeeded: []string{"p1"}, Failed: []string{"p2"}},
		requestID: m.actionRequestID,
	}
	next, _ := m.Update(result)
	m = next.(Model)

	if len(m.undoStack) != 1 {
		t.Fatalf("undo stack len = %d, want the failed ids re-queued", len(m.undoStack))
	}
	if ids := m.undoStack[0].ids; len(ids) != 1 || ids[0] != "p2" {
		t.Errorf("re-queued ids = %v, want [p2]", ids)
	}
	if !strings.Contains(m.flashMessage, "Restored 1 of 2") {
		t.Errorf("flash = %q, want partial-restore notice", m.flashMessage)
	}
}

func TestUndoHistoryEscCloses(t *testing.T) {
	m := newBuilder().build(t)

	m = press(t, m, "enter")
	m, cmd := pressCmd(t, m, "a")
	m = drain(t, m, cmd)

	m = press(t, m, "u", "esc")
	if m.modal != modalNone {
		t.Errorf("modal = %v, want closed", m.modal)
	}
	if len(m.undoStack) != 1 {
		t.Errorf("closing the history must not consume entries, got %d", len(m.undoStack))
	}
}
