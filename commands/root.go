package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ConfigurationError marks bad CLI input caught before any network or disk
// activity.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "suumo-scraper",
	Short:         "suumo-scraper collects and analyzes SUUMO rental listings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// ExecuteContext runs the CLI. Any returned error exits with code 1; a
// scrape run that wrote output exits 0 even when some stations failed.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
