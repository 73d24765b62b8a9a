package demo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zeroterm/zeroterm/internal/mail"
	"github.com/zeroterm/zeroterm/internal/mailops"
)

// Client is an in-memory mailops.Port. Mutations move messages between
// the live set and per-operation holding maps so undo can restore them
// at their original position. All behavior is deterministic.
type Client struct {
	live     map[string]mail.Message
	archived map[string]mail.Message
	deleted  map[string]mail.Message
	order    map[string]int

	// failing ids simulate a backend that rejects part of a batch.
	failing map[string]bool
}

// Option configures a Client.
type Option func(*Client)

// WithMessages replaces the default dataset.
func WithMessages(msgs []mail.Message) Option {
	return func(c *Client) { c.load(msgs) }
}

// WithFailingIDs makes Archive/Delete report the given ids as failed,
// producing a PartialFailure when a batch mixes them with others.
func WithFailingIDs(ids ...string) Option {
	return func(c *Client) {
		for _, id := range ids {
			c.failing[id] = true
		}
	}
}

// NewClient returns a Client seeded with the demo dataset unless
// overridden by options.
func NewClient(opts ...Option) *Client {
	c := &Client{failing: make(map[string]bool)}
	c.load(Messages())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) load(msgs []mail.Message) {
	c.live = make(map[string]mail.Message, len(msgs))
	c.archived = make(map[string]mail.Message)
	c.deleted = make(map[string]mail.Message)
	c.order = make(map[string]int, len(msgs))
	for i, m := range msgs {
		c.live[m.ID] = m
		c.order[m.ID] = i
	}
}

// Fetch returns the live messages in their original arrival order.
func (c *Client) Fetch(ctx context.Context) ([]mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, &mailops.TransportError{Op: "fetch", Err: err}
	}
	msgs := make([]mail.Message, 0, len(c.live))
	for _, m := range c.live {
		msgs = append(msgs, m)
	}
	sort.Slice(msgs, func(i, j int) bool {
		return c.order[msgs[i].ID] < c.order[msgs[j].ID]
	})
	return msgs, nil
}

// FetchBody synthesizes a plain-text body from the message metadata.
func (c *Client) FetchBody(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &mailops.TransportError{Op: "fetch body", Err: err}
	}
	m, ok := c.live[id]
	if !ok {
		return "", &mailops.TransportError{Op: "fetch body", Err: fmt.Errorf("no such message: %s", id)}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", m.From)
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", m.Date.Format("Mon, 2 Jan 2006 15:04"))
	b.WriteString(strings.TrimSuffix(m.Snippet, "..."))
	b.WriteString("\n\n(demo message body)\n")
	return b.String(), nil
}

// Archive moves the messages into the archived set.
func (c *Client) Archive(ctx context.Context, ids []string) error {
	return c.move(ctx, "archive", ids, c.live, c.archived)
}

// Delete moves the messages into the deleted set.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	return c.move(ctx, "delete", ids, c.live, c.deleted)
}

// Unarchive restores previously archived messages.
func (c *Client) Unarchive(ctx context.Context, ids []string) error {
	return c.move(ctx, "unarchive", ids, c.archived, c.live)
}

// Undelete restores previously deleted messages.
func (c *Client) Undelete(ctx context.Context, ids []string) error {
	return c.move(ctx, "undelete", ids, c.deleted, c.live)
}

func (c *Client) move(ctx context.Context, op string, ids []string, from, to map[string]mail.Message) error {
	if err := ctx.Err(); err != nil {
		return &mailops.TransportError{Op: op, Err: err}
	}
	var succeeded, failed []string
	for _, id := range ids {
		m, ok := from[id]
		if !ok || c.failing[id] {
			failed = append(failed, id)
			continue
		}
		delete(from, id)
		to[id] = m
		succeeded = append(succeeded, id)
	}
	if len(failed) > 0 {
		return &mailops.PartialFailure{Op: op, Succeeded: succeeded, Failed: failed}
	}
	return nil
}

var _ mailops.Port = (*Client)(nil)
