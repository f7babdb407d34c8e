package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sqlscope/internal/db/repository"
)

func newAPIKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCmd(a), newAPIKeyRevokeCmd(a))
	return cmd
}

func newAPIKeyCreateCmd(a *app) *cobra.Command {
	var (
		project string
		name    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a project and print it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ms, err := openMetastore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer ms.Close() //nolint:errcheck

			var expiresAt *time.Time
			if ttl > 0 {
				t := time.Now().Add(ttl)
				expiresAt = &t
			}
			key, raw, err := repository.NewAPIKeyRepo(ms.write).Create(cmd.Context(), project, name, expiresAt)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":         key.ID,
					"project_id": key.ProjectID,
					"key":        raw,
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "id:  %s\nkey: %s\n", key.ID, raw)
			return err
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project ID the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable key name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Key lifetime (0 for no expiry)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newAPIKeyRevokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := openMetastore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer ms.Close() //nolint:errcheck

			if err := repository.NewAPIKeyRepo(ms.write).Revoke(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return err
		},
	}
}
