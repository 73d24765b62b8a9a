package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zeroterm/zeroterm/internal/inbox"
	"github.com/zeroterm/zeroterm/internal/mail"
)

// viewState is the complete navigation state of one screen. Drilling
// down snapshots the whole struct onto the breadcrumb stack; going
// back restores it, so cursor and scroll positions survive the round
// trip.
type viewState struct {
	level        viewLevel
	cursor       int
	scrollOffset int

	// groupKey is the selected sender group, set at levelEmails and
	// below.
	groupKey string

	// threadID is the selected conversation, set at levelThread and
	// below.
	threadID string

	// Body view state
	bodyMessageID string
	bodyContent   string
	bodyLoaded    bool
	bodyScroll    int
}

// navigationSnapshot captures state when drilling down.
type navigationSnapshot struct {
	state viewState
}

// calculateScrollOffset computes the new scroll offset to keep cursor
// visible within pageSize.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

func (m *Model) ensureCursorVisible() {
	m.scrollOffset = calculateScrollOffset(m.cursor, m.scrollOffset, m.pageSize)
}

// navigateList handles cursor movement keys over a list of itemCount
// rows. Returns false if the key is not a navigation key. The cursor
// never wraps: movement past either end clamps to the boundary.
func (m *Model) navigateList(key string, itemCount int) bool {
	changed := false

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			changed = true
		}
	case "down", "j":
		if m.cursor < itemCount-1 {
			m.cursor++
			changed = true
		}
	case "pgup":
		m.cursor -= m.pageSize
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "ctrl+u":
		m.cursor -= m.halfPage()
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "pgdown":
		m.cursor += m.pageSize
		if m.cursor >= itemCount {
			m.cursor = itemCount - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "ctrl+d":
		m.cursor += m.halfPage()
		if m.cursor >= itemCount {
			m.cursor = itemCount - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "home", "g":
		m.cursor = 0
		m.scrollOffset = 0
		return true
	case "end", "G":
		m.cursor = itemCount - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	default:
		return false
	}

	if changed {
		m.ensureCursorVisible()
	}
	return true
}

// halfPage is the ctrl+u/ctrl+d stride, never less than one row.
func (m Model) halfPage() int {
	h := m.pageSize / 2
	if h < 1 {
		h = 1
	}
	return h
}

// pushBreadcrumb saves the current view state before drilling down.
func (m *Model) pushBreadcrumb() {
	m.breadcrumbs = append(m.breadcrumbs, navigationSnapshot{state: m.viewState})
}

// goBack pops one breadcrumb and restores its state. The restored
// cursor is clamped in case the list shrank while we were away.
func (m Model) goBack() (Model, tea.Cmd) {
	if len(m.breadcrumbs) == 0 {
		return m, nil
	}

	bc := m.breadcrumbs[len(m.breadcrumbs)-1]
	m.breadcrumbs = m.breadcrumbs[:len(m.breadcrumbs)-1]
	m.viewState = bc.state

	m.clampCursor()
	return m, nil
}

// clampCursor pulls the cursor back into the bounds of the current
// list.
func (m *Model) clampCursor() {
	n := m.currentListLen()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// recompute rebuilds the derived views (groups and threads) from the
// store. Called after every load and mutation; there is no incremental
// path to go stale.
func (m *Model) recompute() {
	msgs := m.store.All()
	m.groups = inbox.Group(msgs, m.mode)
	m.threads = inbox.IndexThreads(msgs)
}

// reconcile pops the navigation stack out of views whose subject no
// longer exists (the group was emptied, the thread was archived) and
// clamps the cursor. Runs after every mutation and fetch.
func (m *Model) reconcile() {
	for {
		switch m.level {
		case levelBody:
			if _, ok := m.store.Get(m.bodyMessageID); ok {
				m.clampCursor()
				return
			}
		case levelThread:
			if _, ok := m.threads.Thread(m.threadID); ok {
				m.clampCursor()
				return
			}
		case levelEmails:
			if _, ok := inbox.FindGroup(m.groups, m.groupKey); ok {
				m.clampCursor()
				return
			}
		default:
			m.clampCursor()
			return
		}

		if len(m.breadcrumbs) == 0 {
			m.viewState = viewState{level: levelGroups}
			m.clampCursor()
			return
		}
		bc := m.breadcrumbs[len(m.breadcrumbs)-1]
		m.breadcrumbs = m.breadcrumbs[:len(m.breadcrumbs)-1]
		m.viewState = bc.state
	}
}

// currentGroup returns the group the email list is showing.
func (m Model) currentGroup() (inbox.SenderGroup, bool) {
	return inbox.FindGroup(m.groups, m.groupKey)
}

// selectedGroup returns the group under the cursor in the group list.
func (m Model) selectedGroup() (inbox.SenderGroup, bool) {
	groups := m.visibleGroups()
	if m.cursor < 0 || m.cursor >= len(groups) {
		return inbox.SenderGroup{}, false
	}
	return groups[m.cursor], true
}

// matchesFilter reports whether the message passes the active thread
// filter. Filtering narrows what is listed, never what an action
// targets.
func (m Model) matchesFilter(msg mail.Message) bool {
	if m.filter == filterAll {
		return true
	}
	multi := m.threads.IsMultiMessage(msg.ThreadID)
	return (m.filter == filterThreads) == multi
}

// visibleGroups returns the group list rows: groups with at least one
// message passing the thread filter.
func (m Model) visibleGroups() []inbox.SenderGroup {
	if m.filter == filterAll {
		return m.groups
	}
	var out []inbox.SenderGroup
	for _, g := range m.groups {
		for _, msg := range g.Messages {
			if m.matchesFilter(msg) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// filteredGroupMessages returns the group's messages that pass the
// active thread filter.
func (m Model) filteredGroupMessages(g inbox.SenderGroup) []mail.Message {
	if m.filter == filterAll {
		return g.Messages
	}
	var out []mail.Message
	for _, msg := range g.Messages {
		if m.matchesFilter(msg) {
			out = append(out, msg)
		}
	}
	return out
}

// visibleEmails returns the email list rows: the current group's
// messages narrowed by the active thread filter.
func (m Model) visibleEmails() []mail.Message {
	g, ok := m.currentGroup()
	if !ok {
		return nil
	}
	return m.filteredGroupMessages(g)
}

// selectedMessages returns the visible messages toggled with space, in
// list order.
func (m Model) selectedMessages() []mail.Message {
	var out []mail.Message
	for _, msg := range m.visibleEmails() {
		if m.selection[msg.ID] {
			out = append(out, msg)
		}
	}
	return out
}

// selectedEmail returns the message under the cursor in the email
// list.
func (m Model) selectedEmail() (mail.Message, bool) {
	emails := m.visibleEmails()
	if m.cursor < 0 || m.cursor >= len(emails) {
		return mail.Message{}, false
	}
	return emails[m.cursor], true
}

// currentThread returns the conversation the thread view is showing.
func (m Model) currentThread() (*inbox.Thread, bool) {
	return m.threads.Thread(m.threadID)
}

// selectedThreadMessage returns the message under the cursor in the
// thread view.
func (m Model) selectedThreadMessage() (mail.Message, bool) {
	t, ok := m.currentThread()
	if !ok || m.cursor < 0 || m.cursor >= len(t.Messages) {
		return mail.Message{}, false
	}
	return t.Messages[m.cursor], true
}

// currentListLen returns the row count of the active list view.
func (m Model) currentListLen() int {
	switch m.level {
	case levelGroups:
		return len(m.visibleGroups())
	case levelEmails:
		return len(m.visibleEmails())
	case levelThread:
		if t, ok := m.currentThread(); ok {
			return len(t.Messages)
		}
	}
	return 0
}

// enterGroup drills from the group list into the selected sender's
// messages.
func (m Model) enterGroup() (Model, tea.Cmd) {
	g, ok := m.selectedGroup()
	if !ok {
		return m, nil
	}
	m.pushBreadcrumb()
	m.level = levelEmails
	m.groupKey = g.Key
	m.cursor = 0
	m.scrollOffset = 0
	m.selection = make(map[string]bool)
	return m, nil
}

// enterThread drills from the email list into the selected message's
// conversation, positioning the cursor on that message. Entering marks
// the thread as reviewed for this session.
func (m Model) enterThread() (Model, tea.Cmd) {
	msg, ok := m.selectedEmail()
	if !ok {
		return m, nil
	}
	t, ok := m.threads.Thread(msg.ThreadID)
	if !ok {
		return m, nil
	}

	m.pushBreadcrumb()
	m.level = levelThread
	m.threadID = t.ID
	m.cursor = 0
	m.scrollOffset = 0
	for i := range t.Messages {
		if t.Messages[i].ID == msg.ID {
			m.cursor = i
			break
		}
	}
	m.ensureCursorVisible()
	m.protection.MarkVisited(t.ID)
	return m, nil
}

// enterBody opens the full text of the given message.
func (m Model) enterBody(msg mail.Message) (Model, tea.Cmd) {
	m.pushBreadcrumb()
	m.level = levelBody
	m.bodyMessageID = msg.ID
	m.bodyContent = ""
	m.bodyLoaded = false
	m.bodyScroll = 0
	m.bodyRequestID++
	return m, m.loadBody(msg.ID)
}

// toggleMode switches between address and domain grouping. Grouping is
// a property of the whole hierarchy, so the stack unwinds to the group
// list before the regrouping applies.
func (m Model) toggleMode() (Model, tea.Cmd) {
	m.breadcrumbs = nil
	m.viewState = viewState{level: levelGroups}
	m.mode = m.mode.Toggle()
	m.recompute()
	return m.showFlash("Grouping by " + m.mode.String())
}

// clampBodyScroll keeps the body scroll within the wrapped line count.
func (m *Model) clampBodyScroll() {
	if m.level != levelBody {
		return
	}
	maxScroll := len(m.bodyLines()) - m.bodyPageSize()
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.bodyScroll > maxScroll {
		m.bodyScroll = maxScroll
	}
	if m.bodyScroll < 0 {
		m.bodyScroll = 0
	}
}

// bodyPageSize is the page size for the body view, which has no column
// header or separator row.
func (m Model) bodyPageSize() int {
	return m.pageSize + 2
}

// bodyLines returns the body content wrapped to the terminal width.
func (m Model) bodyLines() []string {
	if !m.bodyLoaded {
		return nil
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return wrapText(m.bodyContent, width)
}
