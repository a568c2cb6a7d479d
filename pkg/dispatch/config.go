package dispatch

import (
	"fmt"
	"runtime"

	"github.com/fsteinmetz/runlib/pkg/gateway"
	"github.com/fsteinmetz/runlib/pkg/joblog"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
)

type Config struct {
	// Execution mode: auto, local, coordinator or worker.
	// Auto becomes coordinator when no rendezvous entry exists,
	// worker otherwise.
	Mode string `mapstructure:"mode"`

	// Path of the rendezvous file.
	ServerFile string `mapstructure:"server_file"`

	// Address the coordinator gateway listens on.
	ListenHttp string `mapstructure:"listen_http"`

	// Number of in-process workers in local mode and with self_execute.
	Threads int `mapstructure:"threads"`

	// Whether the coordinator also runs in-process workers.
	SelfExecute bool `mapstructure:"self_execute"`

	// Start the coordinator even if a rendezvous entry exists.
	Force bool `mapstructure:"force"`

	// Job log storage.
	JobLog joblog.StashConfig `mapstructure:"joblog"`

	// Gateway connection retry settings.
	Connect gateway.ClientConfig `mapstructure:"connect"`
}

func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(ModeAuto)
	}
	if c.ServerFile == "" {
		c.ServerFile = rendezvous.DefaultPath
	}
	if c.ListenHttp == "" {
		c.ListenHttp = "tcp://:0"
	}
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU()
	}
	c.JobLog.SetDefaults()
	c.Connect.SetDefaults()
}

// Checks if the processor configuration is valid.
func (c *Config) Validate() error {
	switch Mode(c.Mode) {
	case ModeAuto, ModeLocal, ModeCoordinator, ModeWorker:
	default:
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}

	if c.Threads <= 0 {
		return fmt.Errorf("the thread count must be greater than zero")
	}

	return nil
}

func (c *Config) Log() {
	log.Info("Processor configuration:")
	log.Infof("  mode = %s", c.Mode)
	log.Infof("  server_file = %s", c.ServerFile)
	log.Infof("  listen_http = %s", c.ListenHttp)
	log.Infof("  threads = %d", c.Threads)
	log.Infof("  self_execute = %v", c.SelfExecute)
	log.Infof("  joblog.storage = %s", c.JobLog.StorageType)
	if c.JobLog.Path != "" {
		log.Infof("  joblog.path = %s", c.JobLog.Path)
	}
}
