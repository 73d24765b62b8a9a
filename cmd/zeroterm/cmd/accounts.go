package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeroterm/zeroterm/internal/imap"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List configured accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := cfg.AccountNames()
		if len(names) == 0 {
			fmt.Println("No accounts configured. Run 'zeroterm setup' to add one.")
			return nil
		}
		for _, name := range names {
			acct := cfg.Accounts[name]
			marker := " "
			if name == cfg.DefaultAccount {
				marker = "*"
			}
			creds := ""
			if acct.Password == "" && !imap.HasCredentials(cfg.CredsDir(), name) {
				creds = "  (no password saved)"
			}
			fmt.Printf("%s %-16s %s@%s%s\n", marker, name, acct.Username, acct.Host, creds)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}
