package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hospitalops/kpi-engine/internal/rbac"
)

func permissionsCmd() *cobra.Command {
	var role, output string
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the permission matrix of a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rbac.ParseRole(role)
			if err != nil {
				return err
			}
			matrix := rbac.Matrix(r)
			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), matrix)
			case "table":
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MODULE\tACTIONS")
				for _, module := range rbac.Modules() {
					caps, ok := matrix[module]
					if !ok {
						continue
					}
					actions := make([]string, 0, 5)
					for _, a := range caps.Actions() {
						actions = append(actions, string(a))
					}
					if len(actions) == 0 {
						actions = append(actions, "-")
					}
					fmt.Fprintf(tw, "%s\t%s\n", module, strings.Join(actions, ","))
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown output %q, want json or table", output)
			}
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role: master, admin, analyst or viewer")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "json or table")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
