package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent credential retrievals",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := setup(true)
		if err != nil {
			return err
		}
		defer a.close()

		if a.db == nil {
			return fmt.Errorf("the access log needs the %q or %q cache backend and a master password", "store", "chain")
		}
		entries, err := a.db.GetAuditLog(auditLimit)
		if err != nil {
			return fmt.Errorf("reading access log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-20s %-9s %-20s %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Action, e.Outcome, e.Item)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "number of entries to show")
}
