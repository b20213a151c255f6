package main

import (
	"fmt"
	"os"

	"github.com/hospitalops/kpi-engine/cmd/kpictl/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kpictl:", err)
		os.Exit(1)
	}
}
