package cmd

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zeroterm/zeroterm/internal/imap"
	"github.com/zeroterm/zeroterm/internal/inbox"
	"github.com/zeroterm/zeroterm/internal/mailops"
	"github.com/zeroterm/zeroterm/internal/tui"
)

// runTriage is the default command: connect to the configured account
// and open the triage interface.
func runTriage(cmd *cobra.Command, args []string) error {
	selected := accountFlag
	if selected == "" && cfg.DefaultAccount == "" && len(cfg.Accounts) > 1 {
		var err error
		selected, err = pickAccount()
		if err != nil {
			return err
		}
	}

	name, acct, err := cfg.ActiveAccount(selected)
	if err != nil {
		return fmt.Errorf("%w (run 'zeroterm setup' to add one)", err)
	}

	password := acct.Password
	if password == "" {
		password, err = imap.LoadCredentials(cfg.CredsDir(), name)
		if err != nil {
			return fmt.Errorf("no password for %s: %w", name, err)
		}
	}

	imapCfg := imap.FromAccount(acct)
	imapCfg.Password = password
	imapCfg.FetchLimit = cfg.UI.FetchLimit

	client := imap.NewClient(imapCfg,
		imap.WithLogger(logger),
		imap.WithRateLimit(cfg.IMAP.RateLimitQPS),
	)
	defer client.Close()

	return runTUI(client, name)
}

// pickAccount asks which configured account to open when neither
// --account nor default_account picks one.
func pickAccount() (string, error) {
	names := cfg.AccountNames()
	selected := names[0]
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(huh.NewOptions(names...)...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("select account: %w", err)
	}
	return selected, nil
}

// runTUI launches the interface over the given port. The TUI owns the
// terminal, so logging is redirected to a file for the duration.
func runTUI(port mailops.Port, account string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("zeroterm is interactive; stdout is not a terminal")
	}

	logFile, err := os.OpenFile(cfg.LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err == nil {
		defer logFile.Close()
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	}

	model := tui.New(tui.Options{
		Port:           port,
		Mode:           inbox.ParseMode(cfg.UI.GroupBy),
		ProtectThreads: cfg.UI.ProtectThreads,
		Account:        account,
		Version:        Version,
		Logger:         logger,
		PageSize:       cfg.UI.PageSize,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
