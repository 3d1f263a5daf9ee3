package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-ai/chronicle/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "chronicle",
		Short: "chronicle",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewWorkerCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
