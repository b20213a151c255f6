// Package cli implements the kpictl commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the kpictl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "kpictl",
		Short:         "Offline tooling for the hospital KPI engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(computeCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(permissionsCmd())
	root.AddCommand(keysCmd())
	root.AddCommand(jobsCmd())
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
