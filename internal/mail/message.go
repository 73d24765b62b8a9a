// Package mail defines the message model shared by the store, the
// grouping logic, and the transport backends.
package mail

import (
	"regexp"
	"strings"
	"time"
)

// Message is a single fetched email. Fields are set once at fetch time;
// the only mutation the rest of the system performs is removing the
// message from the store after a successful archive or delete.
type Message struct {
	// ID is the provider-assigned identifier, stable for the lifetime
	// of the session (IMAP UID rendered as a string, or a demo id).
	ID string

	// From is the raw From header value, e.g. `Alice Chen <alice@example.com>`.
	From string

	// FromEmail and FromDomain are derived from From at construction
	// time and case-normalized.
	FromEmail  string
	FromDomain string

	Subject string
	Snippet string
	Date    time.Time

	// ThreadID ties the message to its conversation. Assigned by
	// AssignThreads from the RFC 5322 threading headers below.
	ThreadID string

	MessageID  string
	InReplyTo  string
	References []string

	// SourceFolder is the mailbox the message was fetched from.
	SourceFolder string

	Seen bool
}

// New builds a Message with FromEmail and FromDomain derived from the
// raw From header. ThreadID is left empty until AssignThreads runs.
func New(id, from, subject, snippet string, date time.Time) Message {
	email := ExtractEmail(from)
	return Message{
		ID:         id,
		From:       from,
		FromEmail:  email,
		FromDomain: ExtractDomain(email),
		Subject:    subject,
		Snippet:    snippet,
		Date:       date,
	}
}

var angleAddr = regexp.MustCompile(`<([^>]+)>`)

// ExtractEmail pulls the address out of a `Name <addr>` From header.
// Without angle brackets the whole value is treated as the address.
// The result is lowercased so grouping keys compare consistently.
func ExtractEmail(from string) string {
	if m := angleAddr.FindStringSubmatch(from); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// ExtractDomain returns the part after the first "@". An address with
// no "@" is returned whole so unrelated malformed addresses never
// collapse into one group.
func ExtractDomain(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok {
		return domain
	}
	return email
}

// DisplayName returns the human name portion of the From header, or
// the address itself when the header carries no name.
func (m Message) DisplayName() string {
	if i := strings.Index(m.From, "<"); i > 0 {
		name := strings.TrimSpace(m.From[:i])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return m.FromEmail
}
