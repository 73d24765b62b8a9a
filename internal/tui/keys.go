package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyPress is the top-level key dispatcher.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// ctrl+c always quits, even mid-operation.
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// While a mutation is in flight nothing else is accepted; this is
	// also what rejects a duplicate request for an overlapping scope.
	if m.busy {
		return m.showFlash("Working... (ctrl+c to quit)")
	}

	if m.modal != modalNone {
		return m.handleModalKeys(key)
	}

	if m.searchActive {
		return m.handleSearchKeys(msg)
	}

	switch key {
	case "?":
		m.modal = modalHelp
		return m, nil
	case "r":
		return m.refresh()
	case "u":
		return m.openUndoHistory()
	case "m":
		return m.toggleMode()
	case "q", "esc":
		if m.level == levelGroups {
			if key == "esc" {
				m.err = nil
				return m, nil
			}
			m.modal = modalQuitConfirm
			return m, nil
		}
		return m.goBack()
	}

	switch m.level {
	case levelGroups:
		return m.handleGroupListKeys(key)
	case levelEmails:
		return m.handleEmailListKeys(key)
	case levelThread:
		return m.handleThreadKeys(key)
	case levelBody:
		return m.handleBodyKeys(key)
	}
	return m, nil
}

func (m Model) handleGroupListKeys(key string) (tea.Model, tea.Cmd) {
	if m.navigateList(key, len(m.visibleGroups())) {
		return m, nil
	}

	switch key {
	case "enter", "l", "right":
		return m.enterGroup()
	case "/":
		return m.openSearch()
	case "t":
		m.filter = m.nextFilter()
		m.cursor = 0
		m.scrollOffset = 0
		return m.showFlash("Showing: " + m.filter.String())
	case "A":
		if g, ok := m.selectedGroup(); ok {
			return m.requestGroupAction(verbArchive, g)
		}
	case "D":
		if g, ok := m.selectedGroup(); ok {
			return m.requestGroupAction(verbDelete, g)
		}
	case "a", "d":
		return m.showFlash("Open the sender first (Enter), or use A/D for the whole group")
	}
	return m, nil
}

func (m Model) handleEmailListKeys(key string) (tea.Model, tea.Cmd) {
	if m.navigateList(key, len(m.visibleEmails())) {
		return m, nil
	}

	switch key {
	case "enter", "l", "right":
		return m.enterThread()
	case "v":
		if msg, ok := m.selectedEmail(); ok {
			return m.enterBody(msg)
		}
	case "/":
		return m.openSearch()
	case "t":
		m.filter = m.nextFilter()
		m.cursor = 0
		m.scrollOffset = 0
		return m.showFlash("Showing: " + m.filter.String())
	case " ":
		if msg, ok := m.selectedEmail(); ok {
			if m.selection[msg.ID] {
				delete(m.selection, msg.ID)
			} else {
				m.selection[msg.ID] = true
			}
			m.navigateList("down", len(m.visibleEmails()))
		}
	case "x":
		if len(m.selection) > 0 {
			m.selection = make(map[string]bool)
			return m.showFlash("Selection cleared")
		}
	case "a":
		return m.requestSingleAction(verbArchive)
	case "d":
		return m.requestSingleAction(verbDelete)
	case "A":
		if len(m.selection) > 0 {
			return m.requestSelectionAction(verbArchive)
		}
		if g, ok := m.currentGroup(); ok {
			return m.requestGroupAction(verbArchive, g)
		}
	case "D":
		if len(m.selection) > 0 {
			return m.requestSelectionAction(verbDelete)
		}
		if g, ok := m.currentGroup(); ok {
			return m.requestGroupAction(verbDelete, g)
		}
	}
	return m, nil
}

func (m Model) handleThreadKeys(key string) (tea.Model, tea.Cmd) {
	count := 0
	if t, ok := m.currentThread(); ok {
		count = len(t.Messages)
	}
	if m.navigateList(key, count) {
		return m, nil
	}

	switch key {
	case "enter", "v":
		if msg, ok := m.selectedThreadMessage(); ok {
			return m.enterBody(msg)
		}
	case "/":
		return m.openSearch()
	case "A":
		return m.requestThreadAction(verbArchive)
	case "D":
		return m.requestThreadAction(verbDelete)
	case "a", "d":
		// Per-message actions would splinter the conversation; only
		// the whole-thread forms are legal here.
		return m.showFlash("Use A/D to act on the whole conversation")
	}
	return m, nil
}

func (m Model) handleBodyKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.bodyScroll > 0 {
			m.bodyScroll--
		}
	case "down", "j":
		m.bodyScroll++
		m.clampBodyScroll()
	case "pgup":
		m.bodyScroll -= m.bodyPageSize()
		if m.bodyScroll < 0 {
			m.bodyScroll = 0
		}
	case "ctrl+u":
		m.bodyScroll -= m.bodyPageSize() / 2
		if m.bodyScroll < 0 {
			m.bodyScroll = 0
		}
	case "pgdown":
		m.bodyScroll += m.bodyPageSize()
		m.clampBodyScroll()
	case "ctrl+d":
		m.bodyScroll += m.bodyPageSize() / 2
		m.clampBodyScroll()
	case "home", "g":
		m.bodyScroll = 0
	case "end":
		m.bodyScroll = len(m.bodyLines())
		m.clampBodyScroll()
	}
	return m, nil
}

func (m Model) handleModalKeys(key string) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalConfirmAction:
		switch key {
		case "y", "Y", "enter":
			return m.confirmPending()
		case "n", "N", "esc", "q":
			return m.cancelPending()
		}
	case modalQuitConfirm:
		switch key {
		case "y", "Y", "enter", "q":
			m.quitting = true
			return m, tea.Quit
		case "n", "N", "esc":
			m.modal = modalNone
		}
	case modalUndoHistory:
		switch key {
		case "up", "k":
			if m.undoCursor > 0 {
				m.undoCursor--
			}
		case "down", "j":
			if m.undoCursor < len(m.undoStack)-1 {
				m.undoCursor++
			}
		case "enter", "u":
			return m.restoreUndoEntry()
		case "esc", "q":
			m.modal = modalNone
		}
	case modalHelp:
		// Any key dismisses help.
		m.modal = modalNone
	}
	return m, nil
}

func (m Model) nextFilter() threadFilter {
	switch m.filter {
	case filterAll:
		return filterThreads
	case filterThreads:
		return filterSingles
	default:
		return filterAll
	}
}
