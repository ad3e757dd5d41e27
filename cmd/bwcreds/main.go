// bwcreds prints the username, password and one-time code of a Bitwarden
// login item, keeping the CLI session cached between runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	logLevel   string
	cacheFlag  string
	bwFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "bwcreds <item>",
	Short: "Retrieve a Bitwarden login item's username, password and TOTP",
	Long: `bwcreds drives the Bitwarden CLI with an API key and master password,
reuses the cached session token while it still unlocks the vault, and prints
the credentials of the named item (name, email or id).`,
	Example:       "  bwcreds admin@rtqa1securly.com",
	Args:          cobra.ExactArgs(1),
	RunE:          runRetrieve,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.bwcreds/config.yaml)")
	pf.StringVar(&envFile, "env-file", "", "dotenv file (default ./.env)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&cacheFlag, "cache", "", "session cache backend: env, store, chain")
	pf.StringVar(&bwFlag, "bw", "", "bitwarden CLI command line, e.g. \"npx -y @bitwarden/cli\"")

	rootCmd.Flags().BoolVar(&maskPassword, "mask", false, "print the password as asterisks")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the credentials as JSON")

	rootCmd.AddCommand(logoutCmd, statusCmd, auditCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
