package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albinkc/databend/internal/engine"
	"github.com/albinkc/databend/internal/meta"
	"github.com/albinkc/databend/internal/types"
)

func newQueryCmd() *cobra.Command {
	var metaPath string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one SQL statement and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := meta.OpenSQLite(metaPath)
			if err != nil {
				return fmt.Errorf("opening metastore: %w", err)
			}
			defer db.Close()
			if err := meta.RunMigrations(db); err != nil {
				return fmt.Errorf("migrating metastore: %w", err)
			}

			catalog := meta.NewCatalog(meta.NewSQLiteKV(db), meta.DefaultTenant)
			session, err := engine.NewSession(ctx, catalog, engine.NewStore())
			if err != nil {
				return err
			}

			res, err := session.Execute(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range res.Rows {
				cells := make([]string, len(row))
				for c, d := range row {
					cells[c] = types.Render(d)
				}
				fmt.Fprintln(out, strings.Join(cells, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metaPath, "meta", ":memory:", "metastore path")
	return cmd
}
