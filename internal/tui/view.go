package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Near-monochrome adaptive palette. Every full-width element carries
// bgBase so redrawn rows overwrite stale cells.
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	// Amber, the one colored accent: flashes sit next to errors and
	// have to read as "notice", not "failure".
	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}).
			Background(bgBase)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.buildTitleBar())
	sb.WriteString("\n")
	sb.WriteString(m.buildBreadcrumb())
	sb.WriteString("\n")

	switch m.level {
	case levelBody:
		sb.WriteString(m.bodyView())
	case levelThread:
		sb.WriteString(m.threadListView())
	case levelEmails:
		sb.WriteString(m.emailListView())
	default:
		sb.WriteString(m.groupListView())
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderInfoLine())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())

	if m.modal != modalNone {
		return m.overlayModal(sb.String())
	}
	return sb.String()
}

// buildTitleBar builds the title bar line.
// Format: "zeroterm [version] - account              by address | 42 left"
func (m Model) buildTitleBar() string {
	titleText := "zeroterm"
	if m.version != "" && m.version != "dev" && m.version != "unknown" {
		titleText = fmt.Sprintf("zeroterm [%s]", m.version)
	}
	if m.account != "" {
		titleText += " - " + m.account
	}

	right := fmt.Sprintf("by %s | %s left", m.mode.String(), formatCount(int64(m.store.Len())))

	gap := m.width - lipgloss.Width(titleText) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return titleBarStyle.Render(padRight(titleText+strings.Repeat(" ", gap)+right, m.width-2))
}

// buildBreadcrumb renders the drill-down trail, e.g.
// "Inbox > promo@store.com > Weekly deals".
func (m Model) buildBreadcrumb() string {
	parts := []string{"Inbox"}
	if m.level >= levelEmails {
		parts = append(parts, m.groupKey)
	}
	if m.level >= levelThread {
		if t, ok := m.currentThread(); ok && len(t.Messages) > 0 {
			parts = append(parts, truncateRunes(t.Messages[0].Subject, 40))
		}
	}
	if m.level == levelBody {
		if msg, ok := m.store.Get(m.bodyMessageID); ok {
			parts = append(parts, truncateRunes(msg.Subject, 30))
		}
	}
	return statsStyle.Render(padRight(strings.Join(parts, " > "), m.width-2))
}

// groupListView renders the sender group list.
func (m Model) groupListView() string {
	if m.err != nil {
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf("Error: %v", m.err), m.width)), 1)
	}
	if m.loading && len(m.groups) == 0 {
		return m.fillScreen(loadingStyle.Render(padRight(m.spinnerIndicator()+" Loading inbox...", m.width)), 1)
	}
	if !m.loading && m.store.Len() == 0 {
		return m.celebrationView()
	}

	groups := m.visibleGroups()
	if len(groups) == 0 {
		return m.fillScreen(normalRowStyle.Render(padRight(fmt.Sprintf("No senders (filter: %s)", m.filter.String()), m.width)), 1)
	}

	var sb strings.Builder

	countWidth := 6
	ageWidth := 7
	keyWidth := m.width - countWidth - ageWidth - 7
	if keyWidth < 20 {
		keyWidth = 20
	}

	header := fmt.Sprintf("  %-*s  %*s  %*s", keyWidth, strings.ToUpper(m.mode.String()), countWidth, "COUNT", ageWidth, "LATEST")
	sb.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(padRight(strings.Repeat("─", m.width), m.width)))
	sb.WriteString("\n")

	now := time.Now()
	end := m.scrollOffset + m.pageSize
	if end > len(groups) {
		end = len(groups)
	}
	for i := m.scrollOffset; i < end; i++ {
		g := groups[i]
		latest := g.Messages[len(g.Messages)-1].Date
		row := fmt.Sprintf("  %-*s  %*s  %*s",
			keyWidth, truncateRunes(g.Key, keyWidth),
			countWidth, formatCount(int64(g.Count())),
			ageWidth, formatAge(latest, now))
		sb.WriteString(m.renderRow(row, i == m.cursor))
		sb.WriteString("\n")
	}

	return m.fillScreen(strings.TrimSuffix(sb.String(), "\n"), end-m.scrollOffset+2)
}

// emailListView renders one sender's messages.
func (m Model) emailListView() string {
	if m.err != nil {
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf("Error: %v", m.err), m.width)), 1)
	}

	emails := m.visibleEmails()
	if len(emails) == 0 {
		label := "No messages"
		if m.filter != filterAll {
			label = fmt.Sprintf("No messages (filter: %s)", m.filter.String())
		}
		return m.fillScreen(normalRowStyle.Render(padRight(label, m.width)), 1)
	}

	var sb strings.Builder

	ageWidth := 7
	markWidth := 3
	subjectWidth := m.width - ageWidth - markWidth - 6
	if subjectWidth < 20 {
		subjectWidth = 20
	}

	header := fmt.Sprintf("  %-*s %-*s  %*s", markWidth, "", subjectWidth, "SUBJECT", ageWidth, "AGE")
	sb.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(padRight(strings.Repeat("─", m.width), m.width)))
	sb.WriteString("\n")

	now := time.Now()
	end := m.scrollOffset + m.pageSize
	if end > len(emails) {
		end = len(emails)
	}
	for i := m.scrollOffset; i < end; i++ {
		msg := emails[i]
		mark := " "
		if m.threads.IsMultiMessage(msg.ThreadID) {
			mark = "◈" // part of a conversation
		}
		if m.selection[msg.ID] {
			mark = "*"
		}
		if m.failed[msg.ID] {
			mark = "✗"
		}
		row := fmt.Sprintf("  %-*s %-*s  %*s",
			markWidth, mark,
			subjectWidth, truncateRunes(msg.Subject, subjectWidth),
			ageWidth, formatAge(msg.Date, now))
		sb.WriteString(m.renderRow(row, i == m.cursor))
		sb.WriteString("\n")
	}

	return m.fillScreen(strings.TrimSuffix(sb.String(), "\n"), end-m.scrollOffset+2)
}

// threadListView renders one conversation, every sender included.
func (m Model) threadListView() string {
	if m.err != nil {
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf("Error: %v", m.err), m.width)), 1)
	}

	t, ok := m.currentThread()
	if !ok || len(t.Messages) == 0 {
		return m.fillScreen(normalRowStyle.Render(padRight("Conversation is empty", m.width)), 1)
	}

	var sb strings.Builder

	ageWidth := 7
	fromWidth := 24
	subjectWidth := m.width - fromWidth - ageWidth - 8
	if subjectWidth < 20 {
		subjectWidth = 20
	}

	header := fmt.Sprintf("  %-*s  %-*s  %*s", fromWidth, "FROM", subjectWidth, "SUBJECT", ageWidth, "AGE")
	sb.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(padRight(strings.Repeat("─", m.width), m.width)))
	sb.WriteString("\n")

	now := time.Now()
	end := m.scrollOffset + m.pageSize
	if end > len(t.Messages) {
		end = len(t.Messages)
	}
	for i := m.scrollOffset; i < end; i++ {
		msg := t.Messages[i]
		from := msg.DisplayName()
		if strings.Contains(strings.ToLower(msg.SourceFolder), "sent") {
			from = "me"
		}
		row := fmt.Sprintf("  %-*s  %-*s  %*s",
			fromWidth, truncateRunes(from, fromWidth),
			subjectWidth, truncateRunes(msg.Subject, subjectWidth),
			ageWidth, formatAge(msg.Date, now))
		sb.WriteString(m.renderRow(row, i == m.cursor))
		sb.WriteString("\n")
	}

	return m.fillScreen(strings.TrimSuffix(sb.String(), "\n"), end-m.scrollOffset+2)
}

// bodyView renders the full text of one message with scrolling.
func (m Model) bodyView() string {
	msg, ok := m.store.Get(m.bodyMessageID)
	if !ok {
		return m.fillScreenBody(errorStyle.Render(padRight("Message not found", m.width)), 1)
	}

	if !m.bodyLoaded {
		return m.fillScreenBody(loadingStyle.Render(padRight(m.spinnerIndicator()+" Loading message...", m.width)), 1)
	}

	var lines []string
	lines = append(lines, "From: "+msg.From)
	lines = append(lines, "Date: "+msg.Date.Format("Mon, 02 Jan 2006 15:04"))
	lines = append(lines, "Subject: "+msg.Subject)
	lines = append(lines, "")
	lines = append(lines, m.bodyLines()...)

	pageSize := m.bodyPageSize()
	start := m.bodyScroll
	if start >= len(lines) {
		start = len(lines) - 1
	}
	if start < 0 {
		start = 0
	}
	end := start + pageSize
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for _, line := range lines[start:end] {
		sb.WriteString(normalRowStyle.Render(padRight(line, m.width)))
		sb.WriteString("\n")
	}

	return m.fillScreenBody(strings.TrimSuffix(sb.String(), "\n"), end-start)
}

// celebrationView is shown when the last message has been processed.
func (m Model) celebrationView() string {
	lines := []string{
		"",
		"",
		"  ✨ Inbox zero ✨",
		"",
		"  Nothing left to triage.",
		"  Press u to undo, r to refresh, q to quit.",
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(normalRowStyle.Render(padRight(line, m.width)))
		sb.WriteString("\n")
	}
	return m.fillScreen(strings.TrimSuffix(sb.String(), "\n"), len(lines))
}

// renderRow styles one list row, highlighting the cursor position.
func (m Model) renderRow(text string, selected bool) string {
	if selected {
		return cursorRowStyle.Render(padRight(text, m.width))
	}
	return normalRowStyle.Render(padRight(text, m.width))
}

// fillScreenWithPageSize pads content with blank rows so the footer
// stays pinned to the bottom of the terminal.
func (m Model) fillScreenWithPageSize(content string, usedLines, pageSize int) string {
	if m.width <= 0 {
		return content
	}
	var sb strings.Builder
	sb.WriteString(content)
	for i := usedLines; i < pageSize+2; i++ {
		sb.WriteString("\n")
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
	}
	return sb.String()
}

func (m Model) fillScreen(content string, usedLines int) string {
	return m.fillScreenWithPageSize(content, usedLines, m.pageSize)
}

func (m Model) fillScreenBody(content string, usedLines int) string {
	return m.fillScreenWithPageSize(content, usedLines, m.bodyPageSize()-2)
}

// spinnerIndicator returns the current spinner frame string.
func (m Model) spinnerIndicator() string {
	if m.spinnerFrame < len(spinnerFrames) {
		return spinnerStyle.Render(spinnerFrames[m.spinnerFrame])
	}
	return spinnerStyle.Render(spinnerFrames[0])
}

// renderInfoLine renders the notification line: search input, busy
// indicator, flash, or error, in that priority order.
func (m Model) renderInfoLine() string {
	width := m.width - 2
	if width < 0 {
		width = 0
	}
	switch {
	case m.searchActive:
		return statsStyle.Render(padRight(m.searchInput.View(), width))
	case m.busy:
		return loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" "+m.busyLabel, width+2))
	case m.err != nil:
		return errorStyle.Render(padRight(" Error: "+m.err.Error(), width+2))
	case m.flashMessage != "" && time.Now().Before(m.flashExpiresAt):
		return flashStyle.Render(padRight(" "+m.flashMessage, width+2))
	case m.loading:
		return loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" Refreshing...", width+2))
	}
	return normalRowStyle.Render(padRight("", m.width))
}

// renderFooter renders the key hint line for the active view.
func (m Model) renderFooter() string {
	var keys string
	switch m.level {
	case levelGroups:
		keys = "j/k nav - enter open - A/D group - m group-by - / jump - u undo - r refresh - ? help - q quit"
	case levelEmails:
		keys = "j/k nav - enter thread - v read - space select - a/d one - A/D all - / jump - q back"
	case levelThread:
		keys = "j/k nav - enter read - A/D whole conversation - / jump - u undo - q back"
	case levelBody:
		keys = "j/k scroll - ctrl+u/d half-page - g/end jump - q back"
	}

	pos := ""
	if n := m.currentListLen(); n > 0 && m.level != levelBody {
		pos = fmt.Sprintf("%d/%d", m.cursor+1, n)
	}
	if m.level == levelEmails && len(m.selection) > 0 {
		pos = fmt.Sprintf("%d selected  %s", len(m.selection), pos)
	}

	gap := m.width - lipgloss.Width(keys) - lipgloss.Width(pos) - 2
	if gap < 1 {
		gap = 1
	}
	return footerStyle.Render(padRight(keys+strings.Repeat(" ", gap)+pos, m.width-2))
}

// renderConfirmModal renders the scoped confirmation dialog, including
// the blast-radius warning when other senders share a thread.
func (m Model) renderConfirmModal() string {
	if m.pending == nil {
		return ""
	}
	p := m.pending
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render(p.title))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%d message(s) in %d conversation(s) will be affected.\n", len(p.scope.TargetIDs), p.scope.AffectedThreadCount)
	if p.scope.ExcludedOtherSenderCount > 0 {
		fmt.Fprintf(&sb, "%d message(s) from other senders share these conversations\nand will NOT be touched.\n", p.scope.ExcludedOtherSenderCount)
	}
	sb.WriteString("\n[y] confirm   [n] cancel")
	return sb.String()
}

func (m Model) renderQuitConfirmModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Quit?"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%s message(s) still in the inbox.\n", formatCount(int64(m.store.Len())))
	sb.WriteString("\n[y] quit   [n] keep going")
	return sb.String()
}

// renderUndoHistoryModal lists completed actions newest first; enter
// reverses the one under the cursor.
func (m Model) renderUndoHistoryModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Undo history"))
	sb.WriteString("\n\n")
	now := time.Now()
	for i := len(m.undoStack) - 1; i >= 0; i-- {
		entry := m.undoStack[i]
		marker := "  "
		if len(m.undoStack)-1-i == m.undoCursor {
			marker = "> "
		}
		fmt.Fprintf(&sb, "%s%-32s %s\n", marker, entry.label, formatAge(entry.at, now))
	}
	sb.WriteString("\n[enter] restore   [esc] close")
	return sb.String()
}

func (m Model) renderHelpModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Keys"))
	sb.WriteString("\n\n")
	sb.WriteString("j/k, arrows     move\n")
	sb.WriteString("ctrl+u/d        half-page up/down\n")
	sb.WriteString("g/home, G/end   first/last\n")
	sb.WriteString("enter           drill in\n")
	sb.WriteString("q, esc          back (quit at top)\n")
	sb.WriteString("space           select/deselect message\n")
	sb.WriteString("x               clear selection\n")
	sb.WriteString("a/d             archive/delete one message\n")
	sb.WriteString("A/D             archive/delete group, selection, or conversation\n")
	sb.WriteString("u               undo history\n")
	sb.WriteString("m               group by address/domain\n")
	sb.WriteString("t               filter conversations/singles\n")
	sb.WriteString("/               jump to match\n")
	sb.WriteString("v               read message body\n")
	sb.WriteString("r               refresh from server\n")
	sb.WriteString("\npress any key to close")
	return sb.String()
}

// overlayModal centers the active modal over the background view,
// preserving the background where the modal doesn't cover.
func (m Model) overlayModal(background string) string {
	var modalContent string
	switch m.modal {
	case modalConfirmAction:
		modalContent = m.renderConfirmModal()
	case modalQuitConfirm:
		modalContent = m.renderQuitConfirmModal()
	case modalUndoHistory:
		modalContent = m.renderUndoHistoryModal()
	case modalHelp:
		modalContent = m.renderHelpModal()
	}
	if modalContent == "" {
		return background
	}

	modal := modalStyle.Render(modalContent)

	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	modalHeight := len(modalLines)
	startLine := (len(bgLines) - modalHeight) / 2
	if startLine < 0 {
		startLine = 0
	}

	modalWidth := lipgloss.Width(modal)
	leftPadding := (m.width - modalWidth) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	for i, modalLine := range modalLines {
		lineIdx := startLine + i
		if lineIdx >= len(bgLines) {
			break
		}
		bgLine := bgLines[lineIdx]
		bgWidth := lipgloss.Width(bgLine)

		var composite strings.Builder
		if leftPadding > 0 {
			leftBg := truncateToWidth(bgLine, leftPadding)
			composite.WriteString(leftBg)
			if lipgloss.Width(leftBg) < leftPadding {
				composite.WriteString(strings.Repeat(" ", leftPadding-lipgloss.Width(leftBg)))
			}
		}
		composite.WriteString(modalLine)

		rightStart := leftPadding + modalWidth
		if rightStart < bgWidth {
			composite.WriteString(skipToWidth(bgLine, rightStart))
		}

		bgLines[lineIdx] = composite.String()
	}

	return strings.Join(bgLines, "\n")
}
