package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"booklookup/internal/diagnose"
)

func newDiagnoseCmd(configPath *string) *cobra.Command {
	var (
		title   string
		authors int
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check that the remote book API answers in the expected shape",
		Long: `Diagnose searches one title and fetches author records, validating every
response against the JSON contract the shell depends on.

By default the authors returned by the search are checked; --authors N checks
IDs 1..N instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			progress := cmd.ErrOrStderr()
			if quiet {
				progress = nil
			}
			p, err := diagnose.NewChecker(a.client, progress)
			if err != nil {
				return err
			}

			rep := p.Run(cmd.Context(), title, authors)
			if _, err := rep.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			if n := rep.Failed(); n > 0 {
				return fmt.Errorf("%d check(s) failed", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Dune", "title to search for")
	cmd.Flags().IntVar(&authors, "authors", 0, "check author IDs 1..N instead of the search result's authors")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}
