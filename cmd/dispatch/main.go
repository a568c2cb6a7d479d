package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fsteinmetz/runlib/pkg/dispatch"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dispatch [flags] CMD ARG...",
	Short: "Distribute a command over many arguments across machines on the local network",
	Long: `Runs CMD once per argument. The first invocation elects itself
coordinator and publishes its endpoint to the rendezvous file; later
invocations of the same command line discover the coordinator and
become workers, claiming jobs until the queue is empty.`,
	Example: "  dispatch 'gunzip -v' *.gz",
	Run: func(cmd *cobra.Command, args []string) {
		verbosity, err := cmd.Flags().GetCount("verbose")
		if err != nil {
			log.Fatal(err)
		}
		switch {
		case verbosity >= 2:
			log.SetLevel(log.TraceLevel)
		case verbosity >= 1:
			log.SetLevel(log.DebugLevel)
		}

		config, err := LoadConfig()
		if err != nil {
			log.Fatal(err)
		}
		config.SetDefaults()
		config.Log()

		proc, err := dispatch.NewProcessor(config, dispatch.NewRegistry(), afero.NewOsFs())
		if err != nil {
			log.DebugError(err)
			log.Fatal(err)
		}

		ctx := context.Background()

		// Later invocations become workers: they execute jobs
		// submitted by the coordinating invocation and exit once
		// the queue is empty.
		if proc.Mode() == dispatch.ModeWorker {
			if err := proc.Wait(ctx); err != nil {
				log.Fatal(err)
			}
			return
		}

		if len(args) < 2 {
			cmd.Usage()
			os.Exit(1)
		}

		cwd, err := os.Getwd()
		if err != nil {
			log.Fatal(err)
		}

		command := args[0]
		for _, arg := range args[1:] {
			cmdline := fmt.Sprintf("%s %s", command, arg)
			if _, err := proc.Submit(protocol.NewCommandPayload(cwd, cmdline)); err != nil {
				log.Fatal(err)
			}
		}
		log.Infof("Submitted %d jobs", len(args)-1)

		// The console runs alongside the wait and is stopped and
		// joined once all jobs are terminal.
		var consoleDone chan error
		var stopConsole context.CancelFunc
		if proc.Mode() == dispatch.ModeCoordinator {
			cctx, cancel := context.WithCancel(ctx)
			stopConsole = cancel

			console := dispatch.NewConsole(proc.Coordinator(), os.Stdin)
			consoleDone = make(chan error, 1)
			go func() {
				consoleDone <- console.Run(cctx)
			}()
		}

		if err := proc.Wait(ctx); err != nil {
			log.Fatal(err)
		}

		if consoleDone != nil {
			stopConsole()
			if err := <-consoleDone; err != nil && !errors.Is(err, context.Canceled) {
				log.Error(err)
			}
		}

		failed := 0
		for _, result := range proc.Results() {
			if result.Status == protocol.JobStatus_FAILED {
				failed++
				log.Errorf("job %d failed: %s", result.Id, result.Err)
			}
		}

		log.Infof("%d jobs done, %d failed", len(proc.Results())-failed, failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func main() {
	rootCmd.Flags().StringP("mode", "m", "auto", "Execution mode (auto, local, coordinator, worker)")
	rootCmd.Flags().StringP("server-file", "f", rendezvous.DefaultPath, "Rendezvous file path")
	rootCmd.Flags().StringP("listen", "l", "tcp://:0", "Address the coordinator gateway listens on")
	rootCmd.Flags().StringP("threads", "j", fmt.Sprint(runtime.NumCPU()), "Number of in-process workers")
	rootCmd.Flags().BoolP("self-execute", "x", false, "Also execute jobs in the coordinator process")
	rootCmd.Flags().Bool("force", false, "Start the coordinator even if a rendezvous entry exists")
	rootCmd.Flags().String("joblog-storage", "memory", "Job log storage (memory or disk)")
	rootCmd.Flags().String("joblog-path", "", "Job log directory for disk storage")
	rootCmd.Flags().CountP("verbose", "v", "Verbosity (repeatable)")

	viper.BindPFlag("mode", rootCmd.Flags().Lookup("mode"))
	viper.BindPFlag("server_file", rootCmd.Flags().Lookup("server-file"))
	viper.BindPFlag("listen_http", rootCmd.Flags().Lookup("listen"))
	viper.BindPFlag("threads", rootCmd.Flags().Lookup("threads"))
	viper.BindPFlag("self_execute", rootCmd.Flags().Lookup("self-execute"))
	viper.BindPFlag("force", rootCmd.Flags().Lookup("force"))
	viper.BindPFlag("joblog.storage", rootCmd.Flags().Lookup("joblog-storage"))
	viper.BindPFlag("joblog.path", rootCmd.Flags().Lookup("joblog-path"))
	viper.SetEnvPrefix("runlib")
	viper.AutomaticEnv()

	viper.SetConfigName("dispatch.yaml")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/runlib/")
	viper.AddConfigPath("$HOME/.config/runlib")
	viper.AddConfigPath(".")
	viper.ReadInConfig()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
