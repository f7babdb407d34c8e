package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sqlscope/internal/catalog"
)

func newTranspileCmd(a *app) *cobra.Command {
	var (
		project     string
		catalogFile string
	)

	cmd := &cobra.Command{
		Use:   "transpile [sql]",
		Short: "Validate and scope a query without running it",
		Long: "Prints the validation result for a query as JSON. The query is read from\n" +
			"the argument, or from stdin when the argument is absent or \"-\". Tables\n" +
			"come from --catalog when given, otherwise from the metastore.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlQuery, err := readQuery(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var cat *catalog.Catalog
			if catalogFile != "" {
				cat, err = catalog.FileSource{Path: catalogFile, DefaultTenantColumn: a.cfg.DefaultTenantColumn}.Load(cmd.Context())
			} else {
				cat, err = loadMetastoreCatalog(cmd, a)
			}
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			res := newTranspiler(a).ValidateAndTranspile(cat, sqlQuery, project)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project (tenant) ID to scope the query to")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog file to use instead of the metastore")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func readQuery(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func loadMetastoreCatalog(cmd *cobra.Command, a *app) (*catalog.Catalog, error) {
	ms, err := openMetastore(cmd.Context(), a.cfg)
	if err != nil {
		return nil, err
	}
	defer ms.Close() //nolint:errcheck
	return catalog.NewSQLiteRepo(ms.read).Load(cmd.Context())
}
