package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ZEROTERM_HOME", tmpDir)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.UI.GroupBy != "address" {
		t.Errorf("UI.GroupBy = %q, want address", cfg.UI.GroupBy)
	}
	if !cfg.UI.ProtectThreads {
		t.Error("UI.ProtectThreads = false, want true by default")
	}
	if cfg.UI.FetchLimit != 500 {
		t.Errorf("UI.FetchLimit = %d, want 500", cfg.UI.FetchLimit)
	}
	if cfg.IMAP.RateLimitQPS != 5 {
		t.Errorf("IMAP.RateLimitQPS = %d, want 5", cfg.IMAP.RateLimitQPS)
	}
	if len(cfg.Accounts) != 0 {
		t.Errorf("Accounts = %v, want empty", cfg.Accounts)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ZEROTERM_HOME", tmpDir)

	configContent := `
default_account = "work"

[ui]
group_by = "domain"
protect_threads = false

[imap]
rate_limit_qps = 10

[accounts.work]
host = "imap.example.com"
port = 993
username = "me@example.com"
password = "app-password"
archive_mailbox = "Archive"
`
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultAccount != "work" {
		t.Errorf("DefaultAccount = %q, want work", cfg.DefaultAccount)
	}
	if cfg.UI.GroupBy != "domain" {
		t.Errorf("UI.GroupBy = %q, want domain", cfg.UI.GroupBy)
	}
	if cfg.UI.ProtectThreads {
		t.Error("UI.ProtectThreads = true, want false from file")
	}
	if cfg.IMAP.RateLimitQPS != 10 {
		t.Errorf("IMAP.RateLimitQPS = %d, want 10", cfg.IMAP.RateLimitQPS)
	}

	acct, ok := cfg.Accounts["work"]
	if !ok {
		t.Fatal("account work missing")
	}
	if acct.Host != "imap.example.com" || acct.Port != 993 {
		t.Errorf("account = %+v", acct)
	}
}

func TestLoadInvalidGroupBy(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ZEROTERM_HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[ui]\ngroup_by = \"sender\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load("", ""); err == nil {
		t.Fatal("Load should reject unknown group_by value")
	}
}

func TestLoadExplicitPathNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml", "")
	if err == nil {
		t.Fatal("Load with explicit nonexistent path should return error")
	}
	if got := err.Error(); !strings.Contains(got, "config file not found") {
		t.Errorf("error = %q, want it to contain %q", got, "config file not found")
	}
}

func TestLoadExplicitPathDerivedHomeDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[imap]\nrate_limit_qps = 3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(configPath, "")
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", configPath, err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.IMAP.RateLimitQPS != 3 {
		t.Errorf("IMAP.RateLimitQPS = %d, want 3", cfg.IMAP.RateLimitQPS)
	}
	wantLog := filepath.Join(tmpDir, "zeroterm.log")
	if cfg.LogFilePath() != wantLog {
		t.Errorf("LogFilePath() = %q, want %q", cfg.LogFilePath(), wantLog)
	}
}

func TestLoadWithHomeDir(t *testing.T) {
	homeDir := t.TempDir()
	configPath := filepath.Join(homeDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("default_account = \"x\"\n[accounts.x]\nhost = \"h\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HomeDir != homeDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, homeDir)
	}
	if cfg.DefaultAccount != "x" {
		t.Errorf("DefaultAccount = %q, want x", cfg.DefaultAccount)
	}
}

func TestDefaultHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	t.Setenv("ZEROTERM_HOME", "~/.zeroterm")
	got := DefaultHome()
	expected := filepath.Join(home, ".zeroterm")
	if got != expected {
		t.Errorf("DefaultHome() = %q, want %q", got, expected)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"just tilde", "~", home},
		{"tilde with path", "~/foo", filepath.Join(home, "foo")},
		{"tilde user notation not expanded", "~user", "~user"},
		{"absolute path unchanged", "/var/log/test", "/var/log/test"},
		{"relative path unchanged", "relative/path", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestActiveAccount(t *testing.T) {
	cfg := &Config{
		DefaultAccount: "personal",
		Accounts: map[string]Account{
			"personal": {Host: "imap.gmail.com", Username: "me@gmail.com"},
			"work":     {Host: "imap.example.com", Username: "me@example.com"},
		},
	}

	name, acct, err := cfg.ActiveAccount("")
	if err != nil {
		t.Fatalf("ActiveAccount() error = %v", err)
	}
	if name != "personal" || acct.Host != "imap.gmail.com" {
		t.Errorf("default resolution = %q, %+v", name, acct)
	}

	name, _, err = cfg.ActiveAccount("work")
	if err != nil {
		t.Fatalf("ActiveAccount(work) error = %v", err)
	}
	if name != "work" {
		t.Errorf("name = %q, want work", name)
	}

	if _, _, err := cfg.ActiveAccount("missing"); err == nil {
		t.Error("unknown account should error")
	}
}

func TestActiveAccountSoleFallback(t *testing.T) {
	cfg := &Config{
		Accounts: map[string]Account{
			"only": {Host: "imap.example.com"},
		},
	}
	name, _, err := cfg.ActiveAccount("")
	if err != nil {
		t.Fatalf("ActiveAccount() error = %v", err)
	}
	if name != "only" {
		t.Errorf("name = %q, want only", name)
	}

	cfg.Accounts["second"] = Account{Host: "other"}
	if _, _, err := cfg.ActiveAccount(""); err == nil {
		t.Error("ambiguous account selection should error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	homeDir := t.TempDir()
	cfg, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.DefaultAccount = "personal"
	cfg.Accounts["personal"] = Account{
		Host:     "imap.gmail.com",
		Port:     993,
		Username: "me@gmail.com",
		Password: "secret",
	}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(cfg.ConfigFilePath())
	if err != nil {
		t.Fatalf("Stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("config file perm = %04o, want group/other bits clear", perm)
	}

	loaded, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.DefaultAccount != "personal" {
		t.Errorf("DefaultAccount = %q after reload", loaded.DefaultAccount)
	}
	if loaded.Accounts["personal"].Password != "secret" {
		t.Error("password lost in round trip")
	}
}
