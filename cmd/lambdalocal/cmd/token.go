package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type tokenOptions struct {
	subject  string
	username string
	roles    []string
	routes   []string
}

func newTokenCommand(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the authorizer",
		Long: `Issue a token signed with JWT_SECRET that the authorizer function accepts.

Routes limit the token to METHOD/path patterns under the stage; without
routes the token allows every method and path.

Examples:
  lambdalocal token --subject user-1 --username alice
  lambdalocal token --subject ci --routes "GET/reports/*"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load(cmd)
			if err != nil {
				return err
			}
			svc, err := newAuthService(cfg)
			if err != nil {
				return err
			}

			token, err := svc.GenerateToken(opts.subject, opts.username, opts.roles, opts.routes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "principal ID (required)")
	cmd.Flags().StringVar(&opts.username, "username", "", "username claim")
	cmd.Flags().StringSliceVar(&opts.roles, "roles", nil, "role claims")
	cmd.Flags().StringSliceVar(&opts.routes, "routes", nil, "allowed METHOD/path patterns")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
