// Package tui implements the interactive inbox triage interface: a
// three-level drill-down (sender groups, a sender's messages, one
// conversation) with bulk archive/delete, scoped confirmation prompts,
// and session undo. All mailbox access goes through a mailops.Port.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zeroterm/zeroterm/internal/inbox"
	"github.com/zeroterm/zeroterm/internal/mail"
	"github.com/zeroterm/zeroterm/internal/mailops"
)

// viewLevel identifies which screen of the drill-down hierarchy is
// active.
type viewLevel int

const (
	levelGroups viewLevel = iota // sender groups
	levelEmails                  // one sender's messages
	levelThread                  // one conversation
	levelBody                    // full text of one message
)

func (l viewLevel) String() string {
	switch l {
	case levelGroups:
		return "groups"
	case levelEmails:
		return "emails"
	case levelThread:
		return "thread"
	case levelBody:
		return "body"
	default:
		return "unknown"
	}
}

// modalType represents the type of modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalConfirmAction
	modalQuitConfirm
	modalUndoHistory
	modalHelp
)

// threadFilter narrows the email list to conversations or standalone
// messages.
type threadFilter int

const (
	filterAll threadFilter = iota
	filterThreads
	filterSingles
)

func (f threadFilter) String() string {
	switch f {
	case filterThreads:
		return "threads"
	case filterSingles:
		return "singles"
	default:
		return "all"
	}
}

// Options configures a new Model.
type Options struct {
	Port           mailops.Port
	Mode           inbox.Mode
	ProtectThreads bool
	Account        string
	Version        string
	Logger         *slog.Logger

	// PageSize caps list rows per page; zero fits the terminal.
	PageSize int
}

// Model is the bubbletea model for the triage interface.
type Model struct {
	viewState // Current navigation state (level, cursor, scroll, selection keys)

	port    mailops.Port
	logger  *slog.Logger
	account string
	version string

	store      *inbox.Store
	groups     []inbox.SenderGroup
	threads    *inbox.ThreadIndex
	mode       inbox.Mode
	protection *inbox.Protection
	filter     threadFilter

	// Navigation history: snapshots pushed when drilling down,
	// popped when going back.
	breadcrumbs []navigationSnapshot

	// Terminal dimensions
	width    int
	height   int
	pageSize int

	// maxPageSize caps pageSize when configured; zero means fit the
	// terminal.
	maxPageSize int

	modal   modalType
	pending *pendingAction

	// Per-message selection in the email list. Bulk keys act on the
	// selection when it is non-empty.
	selection map[string]bool

	// Search overlay
	searchActive     bool
	searchInput      textinput.Model
	searchOrigCursor int
	searchOrigScroll int

	// Busy covers an in-flight mutation or undo; all input except
	// ctrl+c is rejected until it resolves.
	busy      bool
	busyLabel string

	loading       bool
	err           error
	spinnerFrame  int
	spinnerActive bool

	// Request tracking to ignore stale async results
	fetchRequestID  uint64
	actionRequestID uint64
	bodyRequestID   uint64

	// Ids that failed in the most recent partial failure; rendered
	// with a marker until the next fetch.
	failed map[string]bool

	undoStack  []undoEntry
	undoCursor int // selected row in the undo history modal

	flashMessage   string
	flashExpiresAt time.Time

	quitting bool
}

// New creates a Model triaging the given port.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "jump to..."
	ti.CharLimit = 100

	return Model{
		port:       opts.Port,
		logger:     logger,
		account:    opts.Account,
		version:    opts.Version,
		store:      inbox.NewStore(logger),
		threads:    inbox.IndexThreads(nil),
		mode:       opts.Mode,
		protection: inbox.NewProtection(opts.ProtectThreads),
		searchInput: ti,
		width:       80,
		height:      24,
		pageSize:    18,
		maxPageSize: opts.PageSize,
		loading:     true,
		failed:      make(map[string]bool),
		selection:   make(map[string]bool),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchInbox(), spinnerTick())
}

// fetchedMsg delivers the result of a mailbox fetch.
type fetchedMsg struct {
	messages  []mail.Message
	err       error
	requestID uint64
}

// actionDoneMsg delivers the result of an archive/delete or an undo.
type actionDoneMsg struct {
	verb      actionVerb
	ids       []string
	undo      bool
	err       error
	requestID uint64
}

// bodyLoadedMsg delivers a fetched message body.
type bodyLoadedMsg struct {
	id        string
	body      string
	err       error
	requestID uint64
}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// fetchInbox loads the current inbox contents from the port.
func (m Model) fetchInbox() tea.Cmd {
	requestID := m.fetchRequestID
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = fetchedMsg{err: fmt.Errorf("fetch panic: %v", r), requestID: requestID}
			}
		}()

		messages, err := m.port.Fetch(context.Background())
		return fetchedMsg{messages: messages, err: err, requestID: requestID}
	}
}

// runAction performs one mutation against the port. The same command
// serves forward actions and undo; undo flips the verb to its reverse
// operation.
func (m Model) runAction(verb actionVerb, ids []string, undo bool) tea.Cmd {
	requestID := m.actionRequestID
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = actionDoneMsg{verb: verb, ids: ids, undo: undo, err: fmt.Errorf("action panic: %v", r), requestID: requestID}
			}
		}()

		ctx := context.Background()
		var err error
		switch {
		case verb == verbArchive && !undo:
			err = m.port.Archive(ctx, ids)
		case verb == verbDelete && !undo:
			err = m.port.Delete(ctx, ids)
		case verb == verbArchive && undo:
			err = m.port.Unarchive(ctx, ids)
		case verb == verbDelete && undo:
			err = m.port.Undelete(ctx, ids)
		}
		return actionDoneMsg{verb: verb, ids: ids, undo: undo, err: err, requestID: requestID}
	}
}

// loadBody fetches the full text of one message.
func (m Model) loadBody(id string) tea.Cmd {
	requestID := m.bodyRequestID
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = bodyLoadedMsg{id: id, err: fmt.Errorf("body panic: %v", r), requestID: requestID}
			}
		}()

		body, err := m.port.FetchBody(context.Background(), id)
		return bodyLoadedMsg{id: id, body: body, err: err, requestID: requestID}
	}
}

// spinnerTick returns a command that fires a spinnerTickMsg after the
// spinner interval.
func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner returns a spinnerTick command if the spinner isn't
// already active, and marks it as active.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return spinnerTick()
}

// showFlash displays a temporary flash message.
func (m Model) showFlash(message string) (Model, tea.Cmd) {
	m.flashMessage = message
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return m, tea.Tick(flashDuration, func(t time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width < 0 {
			m.width = 0
		}
		if m.height < 0 {
			m.height = 0
		}
		// Header (2) + column header (1) + separator (1) + info line (1) + footer (1)
		m.pageSize = m.height - 6
		if m.maxPageSize > 0 && m.pageSize > m.maxPageSize {
			m.pageSize = m.maxPageSize
		}
		if m.pageSize < 1 {
			m.pageSize = 1
		}
		m.ensureCursorVisible()
		m.clampBodyScroll()
		return m, nil

	case fetchedMsg:
		if msg.requestID != m.fetchRequestID {
			return m, nil // Stale result from a superseded fetch
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("fetch failed", "error", msg.err)
			return m, nil
		}
		m.err = nil
		m.failed = make(map[string]bool)
		m.store.Load(msg.messages)
		m.recompute()
		m.reconcile()
		return m, nil

	case actionDoneMsg:
		if msg.requestID != m.actionRequestID {
			return m, nil
		}
		m.busy = false
		m.busyLabel = ""
		return m.applyActionResult(msg)

	case bodyLoadedMsg:
		if msg.requestID != m.bodyRequestID {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("body load failed", "id", msg.id, "error", msg.err)
			next, cmd := m.goBack()
			next2, cmd2 := next.showFlash(fmt.Sprintf("Could not load message: %v", msg.err))
			return next2, tea.Batch(cmd, cmd2)
		}
		m.bodyContent = msg.body
		m.bodyLoaded = true
		m.bodyScroll = 0
		return m, nil

	case flashClearMsg:
		if !time.Now().Before(m.flashExpiresAt) {
			m.flashMessage = ""
		}
		return m, nil

	case spinnerTickMsg:
		if m.loading || m.busy {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil
	}

	return m, nil
}

// refresh re-fetches the inbox, superseding any in-flight fetch.
func (m Model) refresh() (Model, tea.Cmd) {
	m.fetchRequestID++
	m.loading = true
	m.err = nil
	spinCmd := m.startSpinner()
	return m, tea.Batch(m.fetchInbox(), spinCmd)
}
