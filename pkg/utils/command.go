package utils

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"github.com/fsteinmetz/runlib/pkg/log"
)

type commandError struct {
	message string
	details string
}

func NewCmdError(message, details string) error {
	return &commandError{
		message: message,
		details: details,
	}
}

func (c *commandError) Details() string {
	return c.details
}

func (c *commandError) Error() string {
	return c.message
}

// Run a command in the given working directory and capture its combined
// stdout and stderr. The command runs in its own process group so that
// children are not signalled along with the worker.
func RunOutput(cwd string, args ...string) (string, error) {
	output := bytes.Buffer{}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
	if cwd != "" {
		cmd.Dir = cwd
	}

	log.Debug("Running", strings.Join(cmd.Args, " "))

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("Command failed: %s (%v)", strings.Join(args, " "), err)
		return output.String(), NewCmdError(message, output.String())
	}

	return output.String(), nil
}

// Run a shell command line in the given working directory.
func RunShellOutput(cwd, cmdline string) (string, error) {
	return RunOutput(cwd, "/bin/sh", "-c", cmdline)
}
