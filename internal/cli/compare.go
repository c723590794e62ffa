package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"course-matcher/internal/app"
	"course-matcher/internal/matcher"
)

func newCompareCommand(appOpts []app.Option) *cobra.Command {
	var (
		req        matcher.CompareRequest
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run a single comparison and print the verdict",
		Example: `  course-matcher compare \
    --a https://uni-a.example.edu/cs101 \
    --b https://uni-b.example.edu/info1 --b https://uni-b.example.edu/info2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}

			cfg, closeLog, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeLog()

			opts := append([]app.Option{app.WithMemoryFallback()}, appOpts...)
			application, err := app.New(cfg, opts...)
			if err != nil {
				return err
			}
			defer application.Cleanup()

			result, err := application.Matcher.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintln(out, result.Verdict)
			if result.Score != nil {
				fmt.Fprintf(out, "\nSimilarity: %d/100 (%s, %d cached)\n", *result.Score, req.Describe(), result.CacheHits)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&req.SideA, "a", nil, "course page URL of the first university (repeatable, 1-10)")
	cmd.Flags().StringSliceVar(&req.SideB, "b", nil, "course page URL of the second university (repeatable, 1-10)")
	cmd.Flags().StringVar(&req.University1, "university-1", "", "name of the first university, stores the verdict when both names are set")
	cmd.Flags().StringVar(&req.University2, "university-2", "", "name of the second university")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	return cmd
}
