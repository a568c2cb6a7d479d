package main

import (
	"io"
	"os"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log ID",
	Short: "Print the captured output of a job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewCoordinatorClient()

		reader, err := client.ReadLog(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer reader.Close()

		if _, err := io.Copy(os.Stdout, reader); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
}
