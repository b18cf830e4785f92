package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxfolio/portfolio-api/internal/repository/postgres"
	"github.com/foxfolio/portfolio-api/internal/service/visitor"
)

func newImportVisitorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-visitors FILE",
		Short: "Register one visitor per line of FILE (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			return a.withDB(func(db *sql.DB) error {
				report, err := visitor.NewService(postgres.NewVisitorRepo(db)).Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added: %d\nexisting: %d\ninvalid: %d\n",
					report.Added, report.Existing, report.Invalid)
				return nil
			})
		},
	}
}
