package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/projectdesk/internal/config"
)

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "projectdesk",
		Short:         "Project and task tracking API for client work",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(cfg),
		newMigrateCommand(cfg),
		newSeedCommand(cfg),
	)

	if err := root.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
