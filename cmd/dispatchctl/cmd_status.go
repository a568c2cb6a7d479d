package main

import (
	"fmt"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the coordinator's queue snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewCoordinatorClient()

		snapshot, err := client.Snapshot()
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Coordinator:", client.Endpoint())
		fmt.Println("  pending:", snapshot.Pending)
		fmt.Println("  claimed:", snapshot.Claimed)
		fmt.Println("  done:   ", snapshot.Done)
		fmt.Println("  failed: ", snapshot.Failed)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
