package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"chatsync/pkg/logger"
)

// Abort logs a fatal startup error, writes a crash dump next to the
// database and exits after a short delay so logs have time to flush.
func Abort(contextMsg string, err error, dbPath string, delaySeconds ...int) {
	delay := 5
	if len(delaySeconds) > 0 && delaySeconds[0] >= 0 {
		delay = delaySeconds[0]
	}
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	dumpPath, derr := writeCrashDump(dbPath, contextMsg, err)
	if derr != nil {
		logger.Error("crash_dump_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "FAILED TO WRITE CRASH DUMP: %v\n", derr)
	} else {
		logger.Error("startup_fatal_crashdump", "path", dumpPath)
		fmt.Fprintf(os.Stderr, "CRASH DUMP WRITTEN: %s\n", dumpPath)
	}
	for i := delay; i > 0; i-- {
		logger.Info("exiting_in_seconds", "seconds", i)
		time.Sleep(1 * time.Second)
	}
	os.Exit(2)
}

func writeCrashDump(dbPath, reason string, err error) (string, error) {
	crashDir := "./crash"
	if dbPath != "" {
		crashDir = filepath.Join(dbPath, "crash")
	}
	if e := os.MkdirAll(crashDir, 0o700); e != nil {
		return "", fmt.Errorf("failed to create crash dir: %w", e)
	}

	ts := time.Now().UnixNano()
	dumpPath := filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", ts))

	f, ferr := os.CreateTemp(crashDir, ".crash-*.tmp")
	if ferr != nil {
		return "", fmt.Errorf("failed to create temp crash file: %w", ferr)
	}
	tmpName := f.Name()
	defer func() { _ = os.Remove(tmpName) }()

	fmt.Fprintf(f, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "reason: %s\n", reason)
	fmt.Fprintf(f, "error: %v\n", err)
	fmt.Fprintf(f, "\n--- goroutine stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	f.Write(buf[:n])
	f.Sync()
	f.Close()

	if err := os.Rename(tmpName, dumpPath); err != nil {
		return "", fmt.Errorf("failed to move crash dump into place: %w", err)
	}
	_ = os.Chmod(dumpPath, 0o600)
	return dumpPath, nil
}

// SetupSignalHandler installs handlers for SIGINT/SIGTERM and returns a
// cancellable context. The returned context is cancelled when either
// signal arrives.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
		cancel()
	}()

	return ctx, cancel
}
