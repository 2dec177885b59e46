package testutil

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hupe1980/lloyd/wire"
	"github.com/hupe1980/lloyd/worker"
)

const (
	// WorkerEnv marks a re-executed test binary as a worker process.
	WorkerEnv = "LLOYD_WORKER_PROCESS"

	// WorkerModeEnv selects the worker behavior, one of the Mode constants.
	WorkerModeEnv = "LLOYD_WORKER_MODE"
)

// Worker behaviors for fault-injection tests.
const (
	// ModeServe runs the real worker loop.
	ModeServe = "serve"
	// ModeExit exits with status 3 before connecting.
	ModeExit = "exit"
	// ModeSilent never connects.
	ModeSilent = "silent"
	// ModeGarbage connects and writes bytes that are not a frame.
	ModeGarbage = "garbage"
	// ModeWrongK answers the handshake with a different k.
	ModeWrongK = "wrong-k"
	// ModeHang takes the partition and centroids but never answers.
	ModeHang = "hang"
	// ModeCrash exits with status 4 after receiving the first centroids.
	ModeCrash = "crash"
	// ModeLinger serves normally but ignores the closed connection and keeps running.
	ModeLinger = "linger"
)

// WorkerCommand returns the executable and extra environment that launch the
// running test binary as a worker with the given mode.
func WorkerCommand(mode string) (string, []string) {
	return os.Args[0], []string{WorkerEnv + "=1", WorkerModeEnv + "=" + mode}
}

// RunWorkerIfRequested turns the process into a worker and exits when the test
// binary was started by WorkerCommand. Otherwise it returns immediately.
func RunWorkerIfRequested() {
	if os.Getenv(WorkerEnv) != "1" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runWorker(ctx, os.Getenv(WorkerModeEnv), os.Args[1:])
	stop()
	os.Exit(code)
}

func runWorker(ctx context.Context, mode string, args []string) int {
	switch mode {
	case "", ModeServe:
		if err := worker.Main(ctx, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	case ModeLinger:
		_ = worker.Main(ctx, args)
		time.Sleep(time.Hour)
		return 0
	case ModeExit:
		return 3
	case ModeSilent:
		time.Sleep(time.Hour)
		return 0
	}

	addr, k := launchArgs(args)
	nc, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	conn := wire.NewConn(nc)
	defer conn.Close()

	switch mode {
	case ModeGarbage:
		_, _ = nc.Write([]byte("this is definitely not a frame header"))
	case ModeWrongK:
		_ = conn.SendHello(ctx, wire.Hello{PID: os.Getpid(), K: k + 1})
	case ModeHang, ModeCrash:
		if err := conn.SendHello(ctx, wire.Hello{PID: os.Getpid(), K: k}); err != nil {
			return 1
		}
		if _, err := conn.RecvPoints(); err != nil {
			return 1
		}
		if _, err := conn.RecvCentroids(); err != nil {
			return 1
		}
		if mode == ModeCrash {
			return 4
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown worker mode %q\n", mode)
		return 2
	}

	// Hold the connection until the coordinator closes it.
	_, _ = io.Copy(io.Discard, nc)
	return 0
}

func launchArgs(args []string) (string, int) {
	var (
		addr string
		k    int
	)
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-addr":
			addr = args[i+1]
		case "-k":
			k, _ = strconv.Atoi(args[i+1])
		}
	}
	return addr, k
}
