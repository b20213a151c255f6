package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hospitalops/kpi-engine/internal/auth"
	"github.com/hospitalops/kpi-engine/internal/rbac"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	var role string
	generate := &cobra.Command{
		Use:   "generate <id>",
		Short: "Issue a bearer token and print the configuration entries for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if id == "" || strings.ContainsAny(id, ".:,") {
				return fmt.Errorf("%w: key id %q", auth.ErrMalformedKey, id)
			}
			r, err := rbac.ParseRole(role)
			if err != nil {
				return err
			}
			token, hash, err := auth.GenerateKey(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:         %s\n", token)
			fmt.Fprintf(out, "API_KEYS:      %s:%s\n", id, hash)
			fmt.Fprintf(out, "API_KEY_ROLES: %s:%s\n", id, r)
			return nil
		},
	}
	generate.Flags().StringVar(&role, "role", string(rbac.RoleViewer), "role granted to the key")
	cmd.AddCommand(generate)
	return cmd
}
