package main

import (
	"os"

	"github.com/spf13/cobra"
)

var mainCmd = &cobra.Command{
	Use:   "crossval",
	Short: "cross-validated ensemble training demo",
}

func main() {
	mainCmd.AddCommand(trainCmd())
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
