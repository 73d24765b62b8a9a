package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// openSearch activates the jump-to overlay on the current list,
// remembering where the cursor was so cancel can put it back exactly.
func (m Model) openSearch() (Model, tea.Cmd) {
	m.searchActive = true
	m.searchOrigCursor = m.cursor
	m.searchOrigScroll = m.scrollOffset
	m.searchInput.SetValue("")
	m.searchInput.CursorEnd()
	return m, m.searchInput.Focus()
}

// handleSearchKeys drives the jump-to overlay. Every keystroke moves
// the cursor to the first row whose display text matches; esc restores
// the pre-search position, enter keeps the new one.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.cursor = m.searchOrigCursor
		m.scrollOffset = m.searchOrigScroll
		return m.closeSearch()
	case "enter":
		return m.closeSearch()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	query := strings.TrimSpace(m.searchInput.Value())
	if query == "" {
		m.cursor = m.searchOrigCursor
		m.scrollOffset = m.searchOrigScroll
		return m, cmd
	}
	if i, ok := m.firstMatch(query); ok {
		m.cursor = i
		m.ensureCursorVisible()
	}
	return m, cmd
}

func (m Model) closeSearch() (Model, tea.Cmd) {
	m.searchActive = false
	m.searchInput.Blur()
	m.searchInput.SetValue("")
	m.clampCursor()
	return m, nil
}

// firstMatch finds the first row of the active list whose display
// text contains the query, case-insensitively.
func (m Model) firstMatch(query string) (int, bool) {
	query = strings.ToLower(query)
	for i, text := range m.searchTexts() {
		if strings.Contains(strings.ToLower(text), query) {
			return i, true
		}
	}
	return 0, false
}

// searchTexts returns the matchable display text of each row in the
// active list.
func (m Model) searchTexts() []string {
	switch m.level {
	case levelGroups:
		groups := m.visibleGroups()
		texts := make([]string, len(groups))
		for i, g := range groups {
			texts[i] = g.Key
		}
		return texts
	case levelEmails:
		emails := m.visibleEmails()
		texts := make([]string, len(emails))
		for i, msg := range emails {
			texts[i] = msg.Subject + " " + msg.DisplayName()
		}
		return texts
	case levelThread:
		t, ok := m.currentThread()
		if !ok {
			return nil
		}
		texts := make([]string, len(t.Messages))
		for i, msg := range t.Messages {
			texts[i] = msg.Subject + " " + msg.DisplayName()
		}
		return texts
	}
	return nil
}
