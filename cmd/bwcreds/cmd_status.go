package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a cached session exists and still unlocks the vault",
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
		fmt.Printf("Session token: %s\n", a.client.TokenStatus(cmd.Context()))
		fmt.Printf("Cache:         %s (%s)\n", a.cfg.CacheBackend, a.cfg.CacheKey)
		return nil
	},
}
