package main

import (
	"fmt"
	"os"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Dispatch coordinator control command",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.SetConfigName("dispatchctl.yaml")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/runlib/")
		viper.AddConfigPath("$HOME/.config/runlib")
		viper.AddConfigPath(".")
		viper.ReadInConfig()

		viper.SetEnvPrefix("runlib")
		viper.AutomaticEnv()

		config, err := ParseConfig()
		if err != nil {
			log.Fatal(err)
		}
		configData = *config
	},
}

var configData = ControlConfig{}

func main() {
	rootCmd.PersistentFlags().StringP("coordinator-uri", "s", "", "Coordinator gateway URI (tcp://host:port)")
	rootCmd.PersistentFlags().StringP("server-file", "f", rendezvous.DefaultPath, "Rendezvous file path")
	viper.BindPFlag("coordinator_uri", rootCmd.PersistentFlags().Lookup("coordinator-uri"))
	viper.BindPFlag("server_file", rootCmd.PersistentFlags().Lookup("server-file"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
