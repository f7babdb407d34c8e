package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sqlscope/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the table allow-list in the metastore",
	}
	cmd.AddCommand(newCatalogImportCmd(a), newCatalogListCmd(a))
	return cmd
}

func newCatalogImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the metastore catalog with the tables of a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := catalog.ParseFile(args[0], a.cfg.DefaultTenantColumn)
			if err != nil {
				return err
			}
			ms, err := openMetastore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer ms.Close() //nolint:errcheck

			if err := catalog.NewSQLiteRepo(ms.write).ReplaceAll(cmd.Context(), tables); err != nil {
				return err
			}
			a.logger.Info("catalog imported", "file", args[0], "tables", len(tables))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d tables\n", len(tables))
			return err
		},
	}
}

type catalogRow struct {
	Table        string `json:"table"`
	TenantColumn string `json:"tenant_column"`
	Queryable    bool   `json:"queryable"`
	Description  string `json:"description,omitempty"`
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tables in the metastore catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadMetastoreCatalog(cmd, a)
			if err != nil {
				return err
			}

			rows := make([]catalogRow, 0, cat.Len())
			for _, t := range cat.Tables() {
				rows = append(rows, catalogRow{
					Table:        t.Key(),
					TenantColumn: t.TenantColumn,
					Queryable:    t.Queryable,
					Description:  t.Description,
				})
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TABLE\tTENANT COLUMN\tQUERYABLE\tDESCRIPTION")
			for _, r := range rows {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.Table, r.TenantColumn, r.Queryable, r.Description)
			}
			return tw.Flush()
		},
	}
}
