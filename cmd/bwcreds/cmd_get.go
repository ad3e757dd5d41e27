package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	maskPassword bool
	jsonOutput   bool
)

func runRetrieve(cmd *cobra.Command, args []string) error {
	item := args[0]
	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.client.Retrieve(cmd.Context(), item)
	a.recordAccess(item, "retrieve", outcomeOf(err))
	if err != nil {
		return fmt.Errorf("failed to retrieve credentials for %s: %w", item, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	password := res.Password
	if maskPassword && password != "" {
		password = strings.Repeat("*", len(password))
	}
	fmt.Printf("Username: %s\n", orNone(res.Username))
	fmt.Printf("Password: %s\n", orNone(password))
	fmt.Printf("TOTP:     %s\n", orNone(res.TOTP))
	return nil
}
