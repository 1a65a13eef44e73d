package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/kolide/kit/version"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
	pkglog "github.com/mofumofu/notifyhelper/pkg/log"
)

// withHelper parses the shared flags plus whatever the subcommand registered, then runs fn
// against a wired helper. The store is only opened when needsStore is set.
func withHelper(flagset *flag.FlagSet, args []string, needsStore bool, fn func(ctx context.Context, logger log.Logger, helper *devicenotify.Helper) error) error {
	opts, finish := registerCommonFlags(flagset)
	if err := parseFlags(flagset, args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if err := finish(); err != nil {
		return err
	}
	opts.lockTimeout = cliLockTimeout

	logger, logCloser := pkglog.New(opts.debug, opts.logFile)
	defer logCloser.Close()
	logger = log.With(logger, "subprocess", flagset.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildHelper(ctx, logger, opts, needsStore)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	return fn(ctx, logger, deps.helper)
}

func runSend(args []string) error {
	var (
		flagset      = flag.NewFlagSet("send", flag.ExitOnError)
		flDeviceID   = flagset.String("device_id", "", "id of the added device")
		flDeviceName = flagset.String("device_name", "", "display name of the added device")
		flDeviceType = flagset.String("device_type", "", "optional device type")
	)

	return withHelper(flagset, args, true, func(ctx context.Context, _ log.Logger, helper *devicenotify.Helper) error {
		if *flDeviceID == "" || *flDeviceName == "" {
			return errors.New("device_id and device_name are required")
		}

		outcome, err := helper.SendDeviceAddedNotification(ctx, devicenotify.DeviceNotificationData{
			DeviceID:   *flDeviceID,
			DeviceName: *flDeviceName,
			DeviceType: *flDeviceType,
		})
		fmt.Println(outcome)
		return err
	})
}

func runOpen(args []string) error {
	var (
		flagset    = flag.NewFlagSet("open", flag.ExitOnError)
		flDeviceID = flagset.String("device_id", "", "id of the device to open, may also be given as the first argument")
	)

	return withHelper(flagset, args, false, func(ctx context.Context, _ log.Logger, helper *devicenotify.Helper) error {
		deviceID := *flDeviceID
		if deviceID == "" && flagset.NArg() > 0 {
			deviceID = flagset.Arg(0)
		}
		if deviceID == "" {
			return errors.New("device_id is required")
		}

		helper.HandleDeviceNotificationClick(ctx, deviceID)
		return nil
	})
}

func runClick(args []string) error {
	flagset := flag.NewFlagSet("click", flag.ExitOnError)

	return withHelper(flagset, args, true, func(ctx context.Context, _ log.Logger, helper *devicenotify.Helper) error {
		return helper.HandleLastNotificationClick(ctx)
	})
}

func runLast(args []string) error {
	flagset := flag.NewFlagSet("last", flag.ExitOnError)

	return withHelper(flagset, args, true, func(_ context.Context, _ log.Logger, helper *devicenotify.Helper) error {
		record, err := helper.LastNotification()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	})
}

func runPermission(args []string) error {
	flagset := flag.NewFlagSet("permission", flag.ExitOnError)

	return withHelper(flagset, args, false, func(ctx context.Context, _ log.Logger, helper *devicenotify.Helper) error {
		fmt.Println(helper.EnsureNotificationPermission(ctx))
		return nil
	})
}

func runVersion(args []string) error {
	version.PrintFull()
	return nil
}
