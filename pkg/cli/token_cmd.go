package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sqlscope/internal/middleware"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		project string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a project with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := middleware.IssueToken([]byte(a.cfg.JWTSecret), project, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project ID to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime (0 for no expiry)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
