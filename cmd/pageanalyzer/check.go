package main

import (
	"fmt"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/analyzer"
	"github.com/shaibs3/pageanalyzer/internal/urlutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var (
		timeout   time.Duration
		userAgent string
	)

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Fetch a page once and print its SEO fields",
		Long: `Fetch a page once and print its response code, title, first heading
and meta description. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := urlutil.Validate(args[0]); err != nil {
				return err
			}

			a, err := analyzer.NewAnalyzer(analyzer.Options{
				Timeout:   timeout,
				UserAgent: userAgent,
			}, zap.NewNop())
			if err != nil {
				return err
			}

			info, err := a.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:      %d\n", info.StatusCode)
			fmt.Fprintf(out, "title:       %s\n", info.Title)
			fmt.Fprintf(out, "h1:          %s\n", info.H1)
			fmt.Fprintf(out, "description: %s\n", info.Description)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", analyzer.DefaultTimeout, "Fetch timeout")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "Override the User-Agent header")

	return cmd
}
