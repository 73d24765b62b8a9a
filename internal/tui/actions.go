package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zeroterm/zeroterm/internal/inbox"
	"github.com/zeroterm/zeroterm/internal/mailops"
)

// actionVerb is the mutation being requested: archive or delete.
type actionVerb int

const (
	verbArchive actionVerb = iota
	verbDelete
)

func (v actionVerb) String() string {
	if v == verbDelete {
		return "delete"
	}
	return "archive"
}

// past is the past-tense form for result flashes.
func (v actionVerb) past() string {
	if v == verbDelete {
		return "Deleted"
	}
	return "Archived"
}

// gerund is the progressive form for the busy indicator.
func (v actionVerb) gerund() string {
	if v == verbDelete {
		return "Deleting"
	}
	return "Archiving"
}

// pendingAction is a scoped mutation awaiting confirmation.
type pendingAction struct {
	verb  actionVerb
	scope inbox.ActionScope
	title string
}

// undoEntry records a completed mutation so it can be reversed. Only
// the ids that actually succeeded are recorded.
type undoEntry struct {
	verb  actionVerb
	ids   []string
	label string
	at    time.Time
}

// requestGroupAction starts a bulk archive/delete of the group's
// messages that pass the thread filter. With no filter active that is
// the whole group; a narrowed list acts on what is shown, never on
// hidden rows. Bulk actions always go through the confirmation modal.
func (m Model) requestGroupAction(verb actionVerb, g inbox.SenderGroup) (Model, tea.Cmd) {
	var (
		scope inbox.ActionScope
		title string
	)
	if m.filter == filterAll {
		scope = inbox.GroupScope(g, m.mode, m.threads)
		title = fmt.Sprintf("%s all %d message(s) from %s?", capitalize(verb.String()), len(scope.TargetIDs), g.Key)
	} else {
		visible := m.filteredGroupMessages(g)
		if len(visible) == 0 {
			return m, nil
		}
		scope = inbox.SelectionScope(visible, m.mode, m.threads)
		title = fmt.Sprintf("%s %d filtered message(s) from %s?", capitalize(verb.String()), len(scope.TargetIDs), g.Key)
	}
	if next, cmd, blocked := m.checkProtection(scope); blocked {
		return next, cmd
	}
	m.pending = &pendingAction{
		verb:  verb,
		scope: scope,
		title: title,
	}
	m.modal = modalConfirmAction
	return m, nil
}

// requestSingleAction archives/deletes the one selected message. No
// confirmation is asked; a single message is cheap to undo.
func (m Model) requestSingleAction(verb actionVerb) (Model, tea.Cmd) {
	msg, ok := m.selectedEmail()
	if !ok {
		return m, nil
	}
	scope := inbox.SingleMessageScope(msg, m.mode, m.threads)
	if next, cmd, blocked := m.checkProtection(scope); blocked {
		return next, cmd
	}
	return m.execute(verb, scope.TargetIDs)
}

// requestSelectionAction starts a bulk archive/delete of the messages
// selected with space in the email list.
func (m Model) requestSelectionAction(verb actionVerb) (Model, tea.Cmd) {
	selected := m.selectedMessages()
	if len(selected) == 0 {
		return m, nil
	}
	scope := inbox.SelectionScope(selected, m.mode, m.threads)
	if next, cmd, blocked := m.checkProtection(scope); blocked {
		return next, cmd
	}
	m.pending = &pendingAction{
		verb:  verb,
		scope: scope,
		title: fmt.Sprintf("%s %d selected message(s)?", capitalize(verb.String()), len(scope.TargetIDs)),
	}
	m.modal = modalConfirmAction
	return m, nil
}

// requestThreadAction archives/deletes the entire conversation being
// viewed, every sender included. Always confirmed.
func (m Model) requestThreadAction(verb actionVerb) (Model, tea.Cmd) {
	t, ok := m.currentThread()
	if !ok {
		return m, nil
	}
	scope, ok := inbox.ThreadScope(t.ID, m.threads)
	if !ok {
		return m, nil
	}
	m.pending = &pendingAction{
		verb:  verb,
		scope: scope,
		title: fmt.Sprintf("%s this entire conversation (%d message(s), %d sender(s))?", capitalize(verb.String()), len(scope.TargetIDs), len(t.Senders)),
	}
	m.modal = modalConfirmAction
	return m, nil
}

// checkProtection rejects the action if its scope touches a
// multi-message thread that has not been opened this session. The
// returned bool reports whether the action was blocked.
func (m Model) checkProtection(scope inbox.ActionScope) (Model, tea.Cmd, bool) {
	blocking := m.protection.Blocking(scope.TargetIDs, m.threads)
	if len(blocking) == 0 {
		return m, nil, false
	}
	next, cmd := m.showFlash(fmt.Sprintf("%d unreviewed conversation(s) in scope - open them first (Enter)", len(blocking)))
	return next, cmd, true
}

// confirmPending runs the action waiting in the confirmation modal.
func (m Model) confirmPending() (Model, tea.Cmd) {
	if m.pending == nil {
		m.modal = modalNone
		return m, nil
	}
	pending := *m.pending
	m.pending = nil
	m.modal = modalNone
	return m.execute(pending.verb, pending.scope.TargetIDs)
}

// cancelPending dismisses the confirmation modal without acting.
func (m Model) cancelPending() (Model, tea.Cmd) {
	m.pending = nil
	m.modal = modalNone
	return m, nil
}

// execute sends one mutation to the port and enters the busy state.
// All input except ctrl+c is rejected until the result arrives, which
// also serves as the duplicate-request guard.
func (m Model) execute(verb actionVerb, ids []string) (Model, tea.Cmd) {
	m.actionRequestID++
	m.busy = true
	m.busyLabel = fmt.Sprintf("%s %d message(s)...", verb.gerund(), len(ids))
	m.err = nil
	spinCmd := m.startSpinner()
	return m, tea.Batch(m.runAction(verb, ids, false), spinCmd)
}

// openUndoHistory shows the stack of completed mutations, newest
// first, so any of them can be reversed.
func (m Model) openUndoHistory() (Model, tea.Cmd) {
	if len(m.undoStack) == 0 {
		return m.showFlash("Nothing to undo")
	}
	m.undoCursor = 0
	m.modal = modalUndoHistory
	return m, nil
}

// restoreUndoEntry reverses the stack entry under the history cursor
// by moving its messages back, then re-fetches so ordering and
// grouping come from the source of truth.
func (m Model) restoreUndoEntry() (Model, tea.Cmd) {
	idx := len(m.undoStack) - 1 - m.undoCursor
	if idx < 0 || idx >= len(m.undoStack) {
		m.modal = modalNone
		return m, nil
	}
	entry := m.undoStack[idx]
	m.undoStack = append(m.undoStack[:idx], m.undoStack[idx+1:]...)
	m.modal = modalNone

	m.actionRequestID++
	m.busy = true
	m.busyLabel = fmt.Sprintf("Restoring %d message(s)...", len(entry.ids))
	m.err = nil
	spinCmd := m.startSpinner()
	return m, tea.Batch(m.runAction(entry.verb, entry.ids, true), spinCmd)
}

// applyActionResult folds a completed mutation or undo back into the
// model. A partial failure removes only the ids that succeeded and
// marks the rest; a transport failure changes nothing and surfaces as
// a banner.
func (m Model) applyActionResult(msg actionDoneMsg) (Model, tea.Cmd) {
	if msg.undo {
		return m.applyUndoResult(msg)
	}

	var partial *mailops.PartialFailure
	switch {
	case msg.err == nil:
		m.removeProcessed(msg.verb, msg.ids)
		return m.showFlash(fmt.Sprintf("%s %d message(s) - press u to undo", msg.verb.past(), len(msg.ids)))

	case errors.As(msg.err, &partial):
		for _, id := range partial.Failed {
			m.failed[id] = true
		}
		m.removeProcessed(msg.verb, partial.Succeeded)
		m.logger.Warn("partial failure", "op", partial.Op, "failed", len(partial.Failed))
		return m.showFlash(fmt.Sprintf("%s %d of %d - %d message(s) failed and remain listed",
			msg.verb.past(), len(partial.Succeeded), len(msg.ids), len(partial.Failed)))

	default:
		m.err = msg.err
		m.logger.Error("action failed", "verb", msg.verb.String(), "error", msg.err)
		return m, nil
	}
}

// removeProcessed drops successfully mutated ids from the session
// store, records the undo entry, and repairs navigation.
func (m *Model) removeProcessed(verb actionVerb, ids []string) {
	if len(ids) == 0 {
		return
	}
	m.store.Remove(ids)
	m.undoStack = append(m.undoStack, undoEntry{
		verb:  verb,
		ids:   ids,
		label: fmt.Sprintf("%s %d message(s)", verb.past(), len(ids)),
		at:    time.Now(),
	})
	for _, id := range ids {
		delete(m.selection, id)
	}
	m.recompute()
	m.reconcile()
}

func (m Model) applyUndoResult(msg actionDoneMsg) (Model, tea.Cmd) {
	var partial *mailops.PartialFailure
	switch {
	case msg.err == nil:
		next, refreshCmd := m.refresh()
		next2, flashCmd := next.showFlash(fmt.Sprintf("Restored %d message(s)", len(msg.ids)))
		return next2, tea.Batch(refreshCmd, flashCmd)

	case errors.As(msg.err, &partial):
		// Some came back; re-fetch to pick up whatever was restored.
		// The rest stays on the stack so the restore can be retried.
		if len(partial.Failed) > 0 {
			m.undoStack = append(m.undoStack, undoEntry{
				verb:  msg.verb,
				ids:   partial.Failed,
				label: fmt.Sprintf("%s %d message(s)", msg.verb.past(), len(partial.Failed)),
				at:    time.Now(),
			})
		}
		next, refreshCmd := m.refresh()
		next2, flashCmd := next.showFlash(fmt.Sprintf("Restored %d of %d message(s)", len(partial.Succeeded), len(msg.ids)))
		return next2, tea.Batch(refreshCmd, flashCmd)

	default:
		// Nothing moved back; keep the entry so undo can be retried.
		m.undoStack = append(m.undoStack, undoEntry{
			verb:  msg.verb,
			ids:   msg.ids,
			label: fmt.Sprintf("%s %d message(s)", msg.verb.past(), len(msg.ids)),
			at:    time.Now(),
		})
		m.err = msg.err
		m.logger.Error("undo failed", "verb", msg.verb.String(), "error", msg.err)
		return m, nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
