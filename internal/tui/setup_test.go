package tui

import (
	"regexp"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zeroterm/zeroterm/internal/demo"
	"github.com/zeroterm/zeroterm/internal/inbox"
	"github.com/zeroterm/zeroterm/internal/mail"
)

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that
// assert on styled output. It acquires colorProfileMu to prevent data
// races with parallel tests and restores the original profile via
// t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// fixtureMessages builds a small inbox with two standalone promo
// messages, a two-sender conversation, and one unrelated message.
func fixtureMessages() []mail.Message {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	p1 := mail.New("p1", "Promo Store <promo@store.com>", "50% off everything", "Deals end soon", base)
	p1.MessageID = "<p1@store.com>"
	p2 := mail.New("p2", "Promo Store <promo@store.com>", "Last chance", "Final hours", base.Add(1*time.Hour))
	p2.MessageID = "<p2@store.com>"

	a1 := mail.New("a1", "Alice <alice@corp.com>", "Project kickoff", "Shall we start Monday?", base.Add(2*time.Hour))
	a1.MessageID = "<t1@corp.com>"
	b1 := mail.New("b1", "Bob <bob@corp.com>", "Re: Project kickoff", "Monday works for me", base.Add(3*time.Hour))
	b1.MessageID = "<t2@corp.com>"
	b1.InReplyTo = "<t1@corp.com>"

	c1 := mail.New("c1", "Carol <carol@other.org>", "Lunch?", "Thursday at noon", base.Add(4*time.Hour))
	c1.MessageID = "<c1@other.org>"

	msgs := []mail.Message{p1, p2, a1, b1, c1}
	mail.AssignThreads(msgs)
	return msgs
}

// testModelBuilder constructs Model instances for testing against a
// deterministic in-memory mailbox.
type testModelBuilder struct {
	messages []mail.Message
	failing  []string
	mode     inbox.Mode
	protect  bool
	width    int
	height   int
}

func newBuilder() *testModelBuilder {
	return &testModelBuilder{
		messages: fixtureMessages(),
		width:    100,
		height:   24,
	}
}

func (b *testModelBuilder) withMessages(msgs ...mail.Message) *testModelBuilder {
	b.messages = msgs
	return b
}

func (b *testModelBuilder) withMode(mode inbox.Mode) *testModelBuilder {
	b.mode = mode
	return b
}

func (b *testModelBuilder) withProtection() *testModelBuilder {
	b.protect = true
	return b
}

func (b *testModelBuilder) withFailing(ids ...string) *testModelBuilder {
	b.failing = ids
	return b
}

func (b *testModelBuilder) withSize(width, height int) *testModelBuilder {
	b.width = width
	b.height = height
	return b
}

// build creates the model, applies the window size, and completes the
// initial fetch synchronously.
func (b *testModelBuilder) build(t *testing.T) Model {
	t.Helper()

	opts := []demo.Option{demo.WithMessages(b.messages)}
	if len(b.failing) > 0 {
		opts = append(opts, demo.WithFailingIDs(b.failing...))
	}

	m := New(Options{
		Port:           demo.NewClient(opts...),
		Mode:           b.mode,
		ProtectThreads: b.protect,
		Account:        "test",
		Version:        "test123",
	})

	next, _ := m.Update(tea.WindowSizeMsg{Width: b.width, Height: b.height})
	m = next.(Model)

	msg := m.fetchInbox()()
	next, _ = m.Update(msg)
	m = next.(Model)
	if m.loading {
		t.Fatal("initial fetch did not complete")
	}
	return m
}

// keyMsg converts a key name into the tea.KeyMsg bubbletea would
// deliver for it.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press applies a sequence of key presses, discarding any commands.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

// pressCmd applies one key press and returns the resulting command.
func pressCmd(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(keyMsg(key))
	return next.(Model), cmd
}

// cmdTimeout bounds command execution in drain: anything slower is a
// timer (flash expiry, spinner tick backoff) and irrelevant to the
// state under test.
const cmdTimeout = 200 * time.Millisecond

func execCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

// drain runs a command tree to completion, feeding resulting messages
// back into the model, so async flows (actions, fetches) can be tested
// synchronously. Timer commands are skipped once observed.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg, ok := execCmd(cmd)
	if !ok {
		return m
	}
	if batch, isBatch := msg.(tea.BatchMsg); isBatch {
		for _, c := range batch {
			m = drain(t, m, c)
		}
		return m
	}
	next, nextCmd := m.Update(msg)
	m = next.(Model)
	switch msg.(type) {
	case spinnerTickMsg, flashClearMsg:
		return m
	}
	return drain(t, m, nextCmd)
}
