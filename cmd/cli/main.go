package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/ordanini/vigat/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vigat-cli",
		Short: "Vigat CLI",
		Long:  `Vigat CLI is a command line interface for inspecting training runs and checkpoints.`,
	}

	checkpointsCmd := cli.NewCheckpointsCmd()

	rootCmd.AddCommand(checkpointsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
