// Package config handles loading and managing zeroterm configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Config represents the zeroterm configuration.
type Config struct {
	DefaultAccount string             `toml:"default_account"`
	Accounts       map[string]Account `toml:"accounts"`
	UI             UIConfig           `toml:"ui"`
	IMAP           IMAPConfig         `toml:"imap"`

	// Computed path (not from config file)
	HomeDir string `toml:"-"`
}

// Account holds the connection settings for one IMAP mailbox.
type Account struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"` // app password; empty means prompt
	Mailbox  string `toml:"mailbox"`  // defaults to INBOX
	// ArchiveMailbox is where archived messages are moved. Empty picks
	// a provider default ([Gmail]/All Mail for Gmail hosts, Archive
	// otherwise).
	ArchiveMailbox string `toml:"archive_mailbox"`
	TrashMailbox   string `toml:"trash_mailbox"`
	Insecure       bool   `toml:"insecure"` // plaintext connection, testing only
}

// UIConfig holds behavior settings consumed by the TUI.
type UIConfig struct {
	GroupBy        string `toml:"group_by"`        // "address" (default) or "domain"
	ProtectThreads bool   `toml:"protect_threads"` // require thread review before bulk actions
	FetchLimit     int    `toml:"fetch_limit"`     // max messages per fetch
	PageSize       int    `toml:"page_size"`       // list rows per page; zero fits the terminal
}

// IMAPConfig holds transport tuning.
type IMAPConfig struct {
	RateLimitQPS int `toml:"rate_limit_qps"`
}

// DefaultHome returns the default zeroterm home directory.
// Respects ZEROTERM_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("ZEROTERM_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zeroterm"
	}
	return filepath.Join(home, ".zeroterm")
}

// Load reads the configuration from the specified file. If path is
// empty, uses the default location (~/.zeroterm/config.toml). A
// non-empty homeDir overrides ZEROTERM_HOME.
func Load(path, homeDir string) (*Config, error) {
	homeDir = expandPath(homeDir)
	path = expandPath(path)
	explicitPath := path != ""

	if homeDir == "" {
		if explicitPath && os.Getenv("ZEROTERM_HOME") == "" {
			// An explicit --config keeps derived paths (log file, saved
			// config) next to the file.
			homeDir = filepath.Dir(path)
		} else {
			homeDir = DefaultHome()
		}
	}
	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir:  homeDir,
		Accounts: map[string]Account{},
		// Defaults
		UI: UIConfig{
			GroupBy:        "address",
			ProtectThreads: true,
			FetchLimit:     500,
		},
		IMAP: IMAPConfig{
			RateLimitQPS: 5,
		},
	}

	// Config file is optional - use defaults if not present. An
	// explicitly requested file must exist, though.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.UI.GroupBy != "address" && cfg.UI.GroupBy != "domain" {
		return nil, fmt.Errorf("invalid ui.group_by %q: want address or domain", cfg.UI.GroupBy)
	}

	return cfg, nil
}

// ConfigFilePath returns the path the config is written to.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// LogFilePath returns the debug log path. The TUI owns the terminal,
// so logs go to a file rather than stderr.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.HomeDir, "zeroterm.log")
}

// CredsDir returns the directory holding saved account credentials.
func (c *Config) CredsDir() string {
	return filepath.Join(c.HomeDir, "credentials")
}

// EnsureHomeDir creates the home directory if missing.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0o700)
}

// ActiveAccount resolves the account to use: the named one if given,
// else default_account, else the sole configured account.
func (c *Config) ActiveAccount(name string) (string, Account, error) {
	if name == "" {
		name = c.DefaultAccount
	}
	if name == "" && len(c.Accounts) == 1 {
		for n := range c.Accounts {
			name = n
		}
	}
	if name == "" {
		return "", Account{}, fmt.Errorf("no account selected: set default_account or pass --account")
	}
	acct, ok := c.Accounts[name]
	if !ok {
		return "", Account{}, fmt.Errorf("unknown account %q (configured: %v)", name, c.AccountNames())
	}
	return name, acct, nil
}

// AccountNames returns the configured account names, sorted.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for n := range c.Accounts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Save writes the configuration back to its file with restrictive
// permissions, since accounts may carry passwords.
func (c *Config) Save() error {
	if err := c.EnsureHomeDir(); err != nil {
		return fmt.Errorf("create home directory: %w", err)
	}
	f, err := os.OpenFile(c.ConfigFilePath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path // ~user notation is not supported
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
