package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/askhub-io/askhub/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "askhubd",
		Short: "AskHub daemon and CLI",
		Long:  "AskHub daemon for running the Q&A API server and managing demo data",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.SeedCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
