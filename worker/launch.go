package worker

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/hupe1980/lloyd/wire"
)

// CommandName is the executable looked up by DefaultCommand.
const CommandName = "lloyd-worker"

// DefaultCommand locates the worker executable: next to the running program
// first, then on PATH.
func DefaultCommand() (string, error) {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), CommandName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(CommandName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	return path, nil
}

// launchArgs returns the process arguments for a worker connecting to addr.
func (c Config) launchArgs(addr string) []string {
	args := make([]string, 0, len(c.Args)+10)
	args = append(args, c.Args...)
	args = append(args, "-addr", addr, "-k", strconv.Itoa(c.K))
	if c.Codec != nil {
		args = append(args, "-codec", c.Codec.Name())
	}
	if c.Compression != wire.CompressionNone {
		args = append(args, "-compression", c.Compression.String())
	}
	if c.MaxFrameSize > 0 {
		args = append(args, "-max-frame-size", strconv.Itoa(c.MaxFrameSize))
	}
	return args
}

func (c Config) command(addr string) (*exec.Cmd, error) {
	name := c.Command
	if name == "" {
		var err error
		if name, err = DefaultCommand(); err != nil {
			return nil, err
		}
	}

	cmd := exec.Command(name, c.launchArgs(addr)...)
	cmd.Env = append(os.Environ(), c.Env...)

	out := c.Stderr
	if out == nil {
		out = os.Stderr
	}
	cmd.Stdout = out
	cmd.Stderr = out

	return cmd, nil
}
