// Package mailops defines the operations interface the navigation core
// consumes. Implementations live in internal/imap (live mailbox) and
// internal/demo (deterministic offline stub); the TUI never touches a
// backend directly.
package mailops

import (
	"context"
	"fmt"

	"github.com/zeroterm/zeroterm/internal/mail"
)

// Port is the capability interface for the active mailbox. Mutating
// calls take the full id set of a confirmed action in one request, so
// a batch either succeeds, fails whole, or reports exactly which ids
// made it (PartialFailure). Implementations must honor context
// cancellation.
type Port interface {
	// Fetch returns the current unprocessed messages of the mailbox,
	// threaded, in arrival order.
	Fetch(ctx context.Context) ([]mail.Message, error)

	// FetchBody loads the plain-text body of one message.
	FetchBody(ctx context.Context, id string) (string, error)

	// Archive moves the messages out of the inbox, keeping them.
	Archive(ctx context.Context, ids []string) error

	// Delete moves the messages to trash.
	Delete(ctx context.Context, ids []string) error

	// Unarchive and Undelete reverse the two mutations; used by undo.
	Unarchive(ctx context.Context, ids []string) error
	Undelete(ctx context.Context, ids []string) error
}

// TransportError wraps a network or protocol failure. Nothing was
// mutated; the UI surfaces it as a banner and keeps the current view.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PartialFailure reports a batch mutation that only partly succeeded.
// Callers remove exactly Succeeded from their state and keep Failed
// visible so no message is silently presumed handled.
type PartialFailure struct {
	Op        string
	Succeeded []string
	Failed    []string
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d messages failed",
		e.Op, len(e.Failed), len(e.Succeeded)+len(e.Failed))
}
