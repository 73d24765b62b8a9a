// Package imap provides the live mailbox backend: a mailops.Port
// implementation speaking IMAP4rev1.
package imap

import (
	"fmt"
	"strings"

	"github.com/zeroterm/zeroterm/internal/config"
)

// Config holds the resolved connection settings for one IMAP server.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Insecure bool // plaintext connection, testing only

	// Mailbox is the folder fetched and acted on.
	Mailbox string
	// ArchiveMailbox receives archived messages; TrashMailbox receives
	// deleted ones.
	ArchiveMailbox string
	TrashMailbox   string

	// FetchLimit caps how many messages Fetch returns, newest first
	// by UID. Zero means no cap.
	FetchLimit int
}

// FromAccount resolves an account's settings into a connection config,
// filling provider-appropriate defaults for anything unset.
func FromAccount(acct config.Account) Config {
	cfg := Config{
		Host:           acct.Host,
		Port:           acct.Port,
		Username:       acct.Username,
		Password:       acct.Password,
		Insecure:       acct.Insecure,
		Mailbox:        acct.Mailbox,
		ArchiveMailbox: acct.ArchiveMailbox,
		TrashMailbox:   acct.TrashMailbox,
	}
	if cfg.Port == 0 {
		if cfg.Insecure {
			cfg.Port = 143
		} else {
			cfg.Port = 993
		}
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	gmail := isGmailHost(cfg.Host)
	if cfg.ArchiveMailbox == "" {
		if gmail {
			cfg.ArchiveMailbox = "[Gmail]/All Mail"
		} else {
			cfg.ArchiveMailbox = "Archive"
		}
	}
	if cfg.TrashMailbox == "" {
		if gmail {
			cfg.TrashMailbox = "[Gmail]/Trash"
		} else {
			cfg.TrashMailbox = "Trash"
		}
	}
	return cfg
}

// Addr returns the "host:port" dial string.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// isGmailHost reports whether the host is a Google IMAP endpoint.
// Gmail uses [Gmail]/ special folders instead of the usual names.
func isGmailHost(host string) bool {
	host = strings.ToLower(host)
	return host == "imap.gmail.com" ||
		strings.HasSuffix(host, ".gmail.com") ||
		strings.HasSuffix(host, ".googlemail.com")
}
