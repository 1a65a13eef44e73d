package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
	"github.com/mofumofu/notifyhelper/ee/desktop/server"
	pkglog "github.com/mofumofu/notifyhelper/pkg/log"
	"github.com/oklog/run"
	"github.com/shirou/gopsutil/process"
)

// serveInfo is printed on stdout once the server is listening, so the application shell
// that spawned us knows where and how to connect.
type serveInfo struct {
	SocketPath string `json:"socket_path"`
	AuthToken  string `json:"authtoken"`
}

func runServe(args []string) error {
	var (
		flagset         = flag.NewFlagSet("notifyhelper serve", flag.ExitOnError)
		opts, finish    = registerCommonFlags(flagset)
		flSocketPath    = flagset.String("socket_path", "", "path to create socket")
		flAuthToken     = flagset.String("authtoken", "", "auth token for the local server, generated when empty")
		flMonitorParent = flagset.Bool("monitor_parent", true, "exit when the parent process (the application shell) exits")
	)

	if err := parseFlags(flagset, args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if err := finish(); err != nil {
		return err
	}

	logger, logCloser := pkglog.New(opts.debug, opts.logFile)
	defer logCloser.Close()
	logger = log.With(logger, "subprocess", "serve", "pid", os.Getpid())
	level.Info(logger).Log("msg", "starting")

	if *flSocketPath == "" {
		*flSocketPath = defaultSocketPath()
		level.Info(logger).Log(
			"msg", "using default socket path since none was provided",
			"socket_path", *flSocketPath,
		)
	}

	if *flAuthToken == "" {
		*flAuthToken = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildHelper(ctx, logger, opts, true)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	deps.notifier.RegisterClickListener(func(route string) {
		if deviceID, ok := devicenotify.DeviceIDFromPath(route); ok {
			deps.helper.HandleDeviceNotificationClick(ctx, deviceID)
			return
		}

		if err := deps.helper.HandleLastNotificationClick(ctx); err != nil {
			level.Error(logger).Log("msg", "handling notification click", "err", err)
		}
	})

	// one pending request is enough; the handler drops repeats
	shutdownChan := make(chan struct{}, 1)
	desktopServer, err := server.New(logger, *flAuthToken, *flSocketPath, shutdownChan, deps.helper)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	var runGroup run.Group

	// listen for signals
	runGroup.Add(func() error {
		listenSignals(ctx, logger)
		return nil
	}, func(error) {
		cancel()
	})

	// start local server
	runGroup.Add(desktopServer.Serve, func(err error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := desktopServer.Shutdown(ctx); err != nil {
			level.Error(logger).Log(
				"msg", "shutting down server",
				"err", err,
			)
		}
	})

	// listen for notification clicks
	runGroup.Add(deps.notifier.Listen, deps.notifier.Interrupt)

	if *flMonitorParent {
		parentCtx, parentCancel := context.WithCancel(ctx)
		runGroup.Add(func() error {
			monitorParentProcess(parentCtx, logger, 2*time.Second)
			return nil
		}, func(error) {
			parentCancel()
		})
	}

	// listen on shutdown channel
	shutdownInterrupt := make(chan struct{})
	runGroup.Add(func() error {
		select {
		case <-shutdownChan:
			level.Info(logger).Log("msg", "shutdown requested")
		case <-shutdownInterrupt:
		}
		return nil
	}, func(error) {
		close(shutdownInterrupt)
	})

	if err := json.NewEncoder(os.Stdout).Encode(serveInfo{SocketPath: *flSocketPath, AuthToken: *flAuthToken}); err != nil {
		return fmt.Errorf("writing serve info: %w", err)
	}

	return runGroup.Run()
}

func listenSignals(ctx context.Context, logger log.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		level.Debug(logger).Log(
			"msg", "received signal",
			"signal", sig,
		)
	case <-ctx.Done():
	}
}

// monitorParentProcess returns once the parent process is gone or ctx is done.
func monitorParentProcess(ctx context.Context, logger log.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ppid := os.Getppid()
		if ppid <= 1 {
			level.Info(logger).Log("msg", "parent process gone", "ppid", ppid)
			return
		}

		checkCtx, cancel := context.WithTimeout(ctx, interval)
		exists, err := process.PidExistsWithContext(checkCtx, int32(ppid))
		cancel()
		if err != nil || !exists {
			level.Info(logger).Log(
				"msg", "parent process gone",
				"ppid", ppid,
				"err", err,
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func defaultSocketPath() string {
	const socketBaseName = "mofumofu_notifyhelper.sock"

	if runtime.GOOS == "windows" {
		return fmt.Sprintf(`\\.\pipe\%s_%d`, socketBaseName, os.Getpid())
	}

	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_%d", socketBaseName, os.Getpid()))
}
