package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"course-matcher/internal/app"
	"course-matcher/internal/matcher"
)

func newInvalidateCommand(appOpts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate URL",
		Short: "Remove a page from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if err := matcher.ValidateURL(url); err != nil {
				return err
			}

			cfg, closeLog, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeLog()

			application, err := app.New(cfg, appOpts...)
			if err != nil {
				return err
			}
			defer application.Cleanup()

			removed, err := application.Matcher.Invalidate(cmd.Context(), url)
			if err != nil {
				return err
			}

			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Cache for %s invalidated\n", url)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No cache entry found for %s\n", url)
			}
			return nil
		},
	}
}
