package imap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"sort"
	"strconv"
	"strings"
	"sync"

	imap "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"golang.org/x/time/rate"

	"github.com/zeroterm/zeroterm/internal/mail"
	"github.com/zeroterm/zeroterm/internal/mailops"
	"github.com/zeroterm/zeroterm/internal/textutil"
)

// Option is a functional option for Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit caps outgoing commands at qps per second. Zero or
// negative disables limiting.
func WithRateLimit(qps int) Option {
	return func(c *Client) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), qps)
		}
	}
}

// Client implements mailops.Port against an IMAP server. Message ids
// are the mailbox UIDs of the configured folder rendered as strings;
// they stay valid until the message is moved out of the folder.
type Client struct {
	config  Config
	logger  *slog.Logger
	limiter *rate.Limiter

	mu              sync.Mutex
	conn            *imapclient.Client
	selectedMailbox string

	// messageIDs remembers the Message-ID header per fetched id so
	// Unarchive/Undelete can find messages after a move changed their
	// UID.
	messageIDs map[string]string
}

// NewClient creates a client. No connection is made until the first
// operation.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		config:     cfg,
		logger:     slog.Default(),
		messageIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// connect establishes and authenticates the IMAP connection. Caller must hold mu.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	addr := c.config.Addr()
	c.logger.Debug("connecting to IMAP server", "addr", addr, "insecure", c.config.Insecure)

	imapOpts := &imapclient.Options{
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	}
	var (
		conn *imapclient.Client
		err  error
	)
	if c.config.Insecure {
		conn, err = imapclient.DialInsecure(addr, imapOpts)
	} else {
		conn, err = imapclient.DialTLS(addr, imapOpts)
	}
	if err != nil {
		return fmt.Errorf("dial IMAP %s: %w", addr, err)
	}

	// Prefer SASL PLAIN; fall back to LOGIN for servers that do not
	// advertise AUTH=PLAIN.
	if err := conn.Authenticate(sasl.NewPlainClient("", c.config.Username, c.config.Password)); err != nil {
		if err := conn.Login(c.config.Username, c.config.Password).Wait(); err != nil {
			_ = conn.Close()
			return fmt.Errorf("IMAP login: %w", err)
		}
	}

	c.conn = conn
	c.selectedMailbox = ""
	c.logger.Debug("connected and authenticated", "user", c.config.Username)
	return nil
}

// withConn runs fn with the active connection, connecting if necessary.
// It holds the mutex for the duration of fn.
func (c *Client) withConn(ctx context.Context, fn func(*imapclient.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.connect(ctx); err != nil {
		return err
	}
	return fn(c.conn)
}

// selectMailbox selects a mailbox if not already selected. Caller must hold mu.
func (c *Client) selectMailbox(mailbox string) error {
	if c.selectedMailbox == mailbox {
		return nil
	}
	if _, err := c.conn.Select(mailbox, nil).Wait(); err != nil {
		return fmt.Errorf("SELECT %q: %w", mailbox, err)
	}
	c.selectedMailbox = mailbox
	return nil
}

// Fetch loads the configured mailbox: envelopes plus the threading
// headers, threaded and in UID (arrival) order.
func (c *Client) Fetch(ctx context.Context) ([]mail.Message, error) {
	var msgs []mail.Message
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := c.selectMailbox(c.config.Mailbox); err != nil {
			return err
		}

		searchData, err := conn.UIDSearch(&imap.SearchCriteria{}, &imap.SearchOptions{ReturnAll: true}).Wait()
		if err != nil {
			return fmt.Errorf("UID SEARCH: %w", err)
		}
		uids := searchData.AllUIDs()
		if len(uids) == 0 {
			return nil
		}
		sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
		if c.config.FetchLimit > 0 && len(uids) > c.config.FetchLimit {
			uids = uids[len(uids)-c.config.FetchLimit:]
		}

		headerSection := &imap.FetchItemBodySection{
			Specifier: imap.PartSpecifierHeader,
			Peek:      true,
		}
		fetchOpts := &imap.FetchOptions{
			Envelope:    true,
			Flags:       true,
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{headerSection},
		}

		bufs, err := conn.Fetch(imap.UIDSetNum(uids...), fetchOpts).Collect()
		if err != nil {
			return fmt.Errorf("UID FETCH: %w", err)
		}

		for _, buf := range bufs {
			if buf.Envelope == nil {
				c.logger.Warn("message without envelope", "uid", buf.UID)
				continue
			}
			m := messageFromEnvelope(buf.UID, buf.Envelope)
			m.SourceFolder = c.config.Mailbox
			for _, f := range buf.Flags {
				if f == imap.FlagSeen {
					m.Seen = true
				}
			}
			if raw := buf.FindBodySection(headerSection); raw != nil {
				applyThreadingHeaders(&m, raw)
			}
			c.messageIDs[m.ID] = m.MessageID
			msgs = append(msgs, m)
		}

		sort.Slice(msgs, func(i, j int) bool {
			a, _ := strconv.ParseUint(msgs[i].ID, 10, 32)
			b, _ := strconv.ParseUint(msgs[j].ID, 10, 32)
			return a < b
		})
		return nil
	})
	if err != nil {
		return nil, &mailops.TransportError{Op: "fetch", Err: err}
	}

	mail.AssignThreads(msgs)
	c.logger.Debug("fetched mailbox", "mailbox", c.config.Mailbox, "count", len(msgs))
	return msgs, nil
}

// FetchBody loads one message and extracts its first text/plain part.
func (c *Client) FetchBody(ctx context.Context, id string) (string, error) {
	uid, err := parseID(id)
	if err != nil {
		return "", &mailops.TransportError{Op: "fetch body", Err: err}
	}

	var body string
	err = c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := c.selectMailbox(c.config.Mailbox); err != nil {
			return err
		}

		bodySection := &imap.FetchItemBodySection{Peek: true}
		fetchOpts := &imap.FetchOptions{
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{bodySection},
		}
		bufs, err := conn.Fetch(imap.UIDSetNum(uid), fetchOpts).Collect()
		if err != nil {
			return fmt.Errorf("UID FETCH %d: %w", uid, err)
		}
		if len(bufs) == 0 {
			return fmt.Errorf("message %s not found", id)
		}
		raw := bufs[0].FindBodySection(bodySection)
		if raw == nil {
			return fmt.Errorf("message %s has no body", id)
		}
		body = extractTextBody(raw)
		return nil
	})
	if err != nil {
		return "", &mailops.TransportError{Op: "fetch body", Err: err}
	}
	return body, nil
}

// Archive moves the messages from the active mailbox to the archive
// mailbox in one MOVE.
func (c *Client) Archive(ctx context.Context, ids []string) error {
	return c.moveOut(ctx, "archive", ids, c.config.ArchiveMailbox)
}

// Delete moves the messages to the trash mailbox in one MOVE.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	return c.moveOut(ctx, "delete", ids, c.config.TrashMailbox)
}

// Unarchive moves previously archived messages back into the active
// mailbox.
func (c *Client) Unarchive(ctx context.Context, ids []string) error {
	return c.moveBack(ctx, "unarchive", ids, c.config.ArchiveMailbox)
}

// Undelete moves previously trashed messages back into the active
// mailbox.
func (c *Client) Undelete(ctx context.Context, ids []string) error {
	return c.moveBack(ctx, "undelete", ids, c.config.TrashMailbox)
}

// moveOut moves ids out of the active mailbox as a single atomic
// UID set.
func (c *Client) moveOut(ctx context.Context, op string, ids []string, dest string) error {
	var uidSet imap.UIDSet
	for _, id := range ids {
		uid, err := parseID(id)
		if err != nil {
			return &mailops.TransportError{Op: op, Err: err}
		}
		uidSet.AddNum(uid)
	}
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := c.selectMailbox(c.config.Mailbox); err != nil {
			return err
		}
		if _, err := conn.Move(uidSet, dest).Wait(); err != nil {
			return fmt.Errorf("MOVE to %q: %w", dest, err)
		}
		return nil
	})
	if err != nil {
		return &mailops.TransportError{Op: op, Err: err}
	}
	c.logger.Debug("moved messages", "op", op, "count", len(ids), "dest", dest)
	return nil
}

// moveBack restores messages from dest to the active mailbox. A move
// changes a message's UID, so messages are located in dest by their
// Message-ID header. Ids whose header is unknown or not found are
// reported through PartialFailure.
func (c *Client) moveBack(ctx context.Context, op string, ids []string, dest string) error {
	var succeeded, failed []string
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := c.selectMailbox(dest); err != nil {
			return err
		}

		var uidSet imap.UIDSet
		found := false
		for _, id := range ids {
			msgID := c.messageIDs[id]
			if msgID == "" {
				failed = append(failed, id)
				continue
			}
			searchData, err := conn.UIDSearch(&imap.SearchCriteria{
				Header: []imap.SearchCriteriaHeaderField{{Key: "Message-Id", Value: msgID}},
			}, &imap.SearchOptions{ReturnAll: true}).Wait()
			if err != nil {
				return fmt.Errorf("UID SEARCH in %q: %w", dest, err)
			}
			uids := searchData.AllUIDs()
			if len(uids) == 0 {
				failed = append(failed, id)
				continue
			}
			uidSet.AddNum(uids...)
			succeeded = append(succeeded, id)
			found = true
		}

		if !found {
			return nil
		}
		if _, err := conn.Move(uidSet, c.config.Mailbox).Wait(); err != nil {
			return fmt.Errorf("MOVE to %q: %w", c.config.Mailbox, err)
		}
		return nil
	})
	if err != nil {
		return &mailops.TransportError{Op: op, Err: err}
	}
	if len(failed) > 0 {
		return &mailops.PartialFailure{Op: op, Succeeded: succeeded, Failed: failed}
	}
	return nil
}

// Close logs out and disconnects from the IMAP server.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	c.selectedMailbox = ""
	return conn.Logout().Wait()
}

var _ mailops.Port = (*Client)(nil)

// parseID converts an opaque message id back to its UID.
func parseID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid IMAP message id %q: %w", id, err)
	}
	return imap.UID(n), nil
}

// messageFromEnvelope builds the message model from a fetched
// envelope. The UID becomes the opaque id.
func messageFromEnvelope(uid imap.UID, env *imap.Envelope) mail.Message {
	from := ""
	if len(env.From) > 0 {
		from = formatAddress(env.From[0])
	}
	m := mail.New(strconv.FormatUint(uint64(uid), 10), textutil.EnsureUTF8(from), textutil.EnsureUTF8(env.Subject), "", env.Date)
	m.MessageID = env.MessageID
	return m
}

// formatAddress renders an envelope address as `Name <addr>`.
func formatAddress(a imap.Address) string {
	addr := a.Mailbox + "@" + a.Host
	if a.Name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", a.Name, addr)
}

// applyThreadingHeaders parses the raw header section for the fields
// the envelope does not carry.
func applyThreadingHeaders(m *mail.Message, raw []byte) {
	r, err := gomail.CreateReader(bytes.NewReader(append(raw, '\r', '\n')))
	if err != nil {
		return
	}
	defer r.Close()
	h := r.Header
	if m.MessageID == "" {
		m.MessageID = h.Get("Message-Id")
	}
	m.InReplyTo = strings.TrimSpace(h.Get("In-Reply-To"))
	m.References = mail.ParseReferences(h.Get("References"))
}

// extractTextBody parses a raw RFC 5322 message and returns its first
// text part, falling back to the raw bytes when parsing fails.
func extractTextBody(raw []byte) string {
	r, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer r.Close()

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		ih, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		if ct != "" && ct != "text/plain" {
			continue
		}
		b, err := io.ReadAll(part.Body)
		if err != nil {
			break
		}
		return textutil.EnsureUTF8(string(b))
	}
	return textutil.EnsureUTF8(string(raw))
}
