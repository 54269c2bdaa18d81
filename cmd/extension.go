package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const (
	EnvAPIURL   = "BO_API_URL"
	EnvAPIToken = "BO_API_TOKEN"
	EnvVerbose  = "BO_VERBOSE"
	EnvTimeout  = "BO_TIMEOUT"
)

// RunExtension attempts to find and execute an external bo-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "bo-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		return false, 0
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true, 1
	}
	newLogger(cfg).WithField("path", lp).Debug("running extension")

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// Pass the resolved configuration as environment variables
	cmd.Env = append(os.Environ(), cfg.Env()...)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
