package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
	"github.com/mofumofu/notifyhelper/ee/desktop/notify"
	"github.com/mofumofu/notifyhelper/ee/desktop/router"
	"github.com/mofumofu/notifyhelper/pkg/agent/storage"
	agentbbolt "github.com/mofumofu/notifyhelper/pkg/agent/storage/bbolt"
	"github.com/mofumofu/notifyhelper/pkg/agent/storage/inmemory"
	agentsqlite "github.com/mofumofu/notifyhelper/pkg/agent/storage/sqlite"
	"github.com/mofumofu/notifyhelper/pkg/agent/types"
)

// errHelperRunning is returned when the bbolt database is held by another process, which
// in practice is a running `notifyhelper serve`.
var errHelperRunning = errors.New("notification database is in use, is notifyhelper serve running? use its local API instead")

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore opens the configured backend and returns the device notifications store.
func openStore(ctx context.Context, logger log.Logger, opts *options) (types.KVStore, io.Closer, error) {
	switch opts.store {
	case storage.BackendMemory:
		return inmemory.NewStore(), closerFunc(func() error { return nil }), nil

	case storage.BackendSqlite:
		conn, err := agentsqlite.OpenDB(ctx, opts.rootDirectory)
		if err != nil {
			return nil, nil, err
		}
		stores, err := agentsqlite.MakeStores(conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return stores[storage.DeviceNotificationsStore], conn, nil

	case storage.BackendBbolt:
		db, err := agentbbolt.OpenDB(opts.rootDirectory, opts.lockTimeout)
		if errors.Is(err, agentbbolt.ErrLocked) {
			return nil, nil, fmt.Errorf("%w: %s", errHelperRunning, err)
		}
		if err != nil {
			return nil, nil, err
		}
		stores, err := agentbbolt.MakeStores(logger, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return stores[storage.DeviceNotificationsStore], db, nil
	}

	return nil, nil, fmt.Errorf("unknown store %q", opts.store)
}

type helperDeps struct {
	helper   *devicenotify.Helper
	notifier notify.DesktopNotifier
	closers  []io.Closer
}

func (d *helperDeps) Close(logger log.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			level.Error(logger).Log("msg", "closing", "err", err)
		}
	}
}

// buildHelper wires the device notification helper to the OS notifier, the browser router
// and, when withStore is set, the configured store. Commands that never touch the
// last-notification record leave the store closed so they work alongside a running serve.
func buildHelper(ctx context.Context, logger log.Logger, opts *options, withStore bool) (*helperDeps, error) {
	deps := &helperDeps{}

	helperOpts := []devicenotify.Option{
		devicenotify.WithLogger(logger),
		devicenotify.WithRouter(router.New(opts.baseURL, router.WithLogger(logger))),
	}

	if withStore {
		store, storeCloser, err := openStore(ctx, logger, opts)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", opts.store, err)
		}
		level.Debug(logger).Log("msg", "opened store", "store", opts.store, "root_directory", opts.rootDirectory)

		helperOpts = append(helperOpts, devicenotify.WithStore(store))
		deps.closers = append(deps.closers, storeCloser)
	}

	deps.notifier = notify.NewDesktopNotifier(logger)
	helperOpts = append(helperOpts,
		devicenotify.WithPermissionAPI(deps.notifier),
		devicenotify.WithDispatcher(deps.notifier),
	)
	deps.helper = devicenotify.New(helperOpts...)

	return deps, nil
}
