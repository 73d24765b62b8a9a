package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/zeroterm/zeroterm/internal/config"
	"github.com/zeroterm/zeroterm/internal/imap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive wizard to add an IMAP account",
	Long: `Interactive wizard to configure an IMAP account for triage.

The password is stored outside config.toml with owner-only file
permissions. For Gmail use an app password, not the account password.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	var (
		name     string
		host     string
		portStr  = "993"
		username string
		password string
	)
	makeDefault := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account name").
				Description("A short label, e.g. personal or work").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("IMAP server").
				Placeholder("imap.gmail.com").
				Value(&host).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("server is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Port").
				Value(&portStr).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("port must be a number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Username").
				Placeholder("you@example.com").
				Value(&username),
			huh.NewInput().
				Title("Password").
				Description("App password for Gmail accounts").
				EchoMode(huh.EchoModePassword).
				Value(&password),
			huh.NewConfirm().
				Title("Make this the default account?").
				Value(&makeDefault),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	port, _ := strconv.Atoi(strings.TrimSpace(portStr))

	if cfg.Accounts == nil {
		cfg.Accounts = make(map[string]config.Account)
	}
	cfg.Accounts[name] = config.Account{
		Host:     strings.TrimSpace(host),
		Port:     port,
		Username: strings.TrimSpace(username),
	}
	if makeDefault || cfg.DefaultAccount == "" {
		cfg.DefaultAccount = name
	}

	if err := imap.SaveCredentials(cfg.CredsDir(), name, password); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Saved account %q to %s\n", name, cfg.ConfigFilePath())
	fmt.Println()
	fmt.Println("Next: run 'zeroterm' to start triaging, or 'zeroterm demo' to practice first.")
	return nil
}
