package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log the Bitwarden CLI out and clear the cached session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.client.EnsureTool(cmd.Context()); err != nil {
			return err
		}
		logoutErr := a.client.Logout(cmd.Context())
		dropErr := a.dropStoredSession()
		a.recordAccess("", "logout", outcomeOf(errors.Join(logoutErr, dropErr)))
		if dropErr != nil {
			return dropErr
		}
		if logoutErr != nil {
			return logoutErr
		}
		fmt.Println("Logged out. Cached session cleared.")
		return nil
	},
}
