//go:build linux
// +build linux

package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/godbus/dbus/v5"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
)

type dbusNotifier struct {
	clickListeners
	logger              log.Logger
	conn                *dbus.Conn
	signal              chan *dbus.Signal
	interrupt           chan struct{}
	sentNotificationIds map[uint32]string // notification id -> route
	lock                sync.RWMutex
	lookPath            func(string) (string, error)
}

const (
	notificationServiceObj       = "/org/freedesktop/Notifications"
	notificationServiceInterface = "org.freedesktop.Notifications"
	signalActionInvoked          = "org.freedesktop.Notifications.ActionInvoked"
	methodNotify                 = "org.freedesktop.Notifications.Notify"
	methodGetServerInformation   = "org.freedesktop.Notifications.GetServerInformation"

	// Invoked when the body of the notification is clicked
	defaultActionKey = "default"
)

func newOsSpecificNotifier(logger log.Logger) *dbusNotifier {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		level.Warn(logger).Log("msg", "couldn't connect to dbus, notifications will fall back to notify-send", "err", err)
	}

	return &dbusNotifier{
		logger:              logger,
		conn:                conn,
		signal:              make(chan *dbus.Signal, 10),
		interrupt:           make(chan struct{}, 1),
		sentNotificationIds: make(map[uint32]string),
		lookPath:            exec.LookPath,
	}
}

// IsPermissionGranted probes the notification service. Freedesktop has no permission model,
// so a reachable notification server (or notify-send) means notifications can be shown.
func (d *dbusNotifier) IsPermissionGranted(ctx context.Context) (bool, error) {
	dbusErr := d.probeNotificationServer(ctx)
	if dbusErr == nil {
		return true, nil
	}

	if _, err := d.lookPath("notify-send"); err == nil {
		level.Debug(d.logger).Log("msg", "notification server not reachable over dbus, notify-send available", "err", dbusErr)
		return true, nil
	}

	return false, nil
}

// RequestPermission cannot prompt the user on linux; it re-probes the notification service.
func (d *dbusNotifier) RequestPermission(ctx context.Context) (devicenotify.Permission, error) {
	granted, err := d.IsPermissionGranted(ctx)
	if err != nil {
		return devicenotify.PermissionDefault, err
	}

	if granted {
		return devicenotify.PermissionGranted, nil
	}

	return devicenotify.PermissionDenied, nil
}

func (d *dbusNotifier) probeNotificationServer(ctx context.Context) error {
	if d.conn == nil {
		return errors.New("no connection to session bus")
	}

	call := d.conn.Object(notificationServiceInterface, notificationServiceObj).CallWithContext(ctx, methodGetServerInformation, 0)
	if call.Err != nil {
		return fmt.Errorf("getting notification server information: %w", call.Err)
	}

	return nil
}

func (d *dbusNotifier) SendNotification(ctx context.Context, n devicenotify.Notification) error {
	dbusErr := d.sendNotificationViaDbus(ctx, n)
	if dbusErr == nil {
		return nil
	}

	if err := d.sendNotificationViaNotifySend(ctx, n); err != nil {
		return fmt.Errorf("sending notification: dbus: %v; notify-send: %w", dbusErr, err)
	}

	return nil
}

// See: https://specifications.freedesktop.org/notification-spec/notification-spec-latest.html
func (d *dbusNotifier) sendNotificationViaDbus(ctx context.Context, n devicenotify.Notification) error {
	if d.conn == nil {
		level.Debug(d.logger).Log("msg", "no dbus connection, will try alternate method of notification")
		return errors.New("no connection to session bus")
	}

	notificationsService := d.conn.Object(notificationServiceInterface, notificationServiceObj)
	call := notificationsService.CallWithContext(ctx, methodNotify,
		0,                                  // no flags
		appName,                            // app_name
		uint32(0),                          // replaces_id -- 0 means this notification won't replace any existing notifications
		n.Icon,                             // app_icon
		n.Title,                            // summary
		n.Body,                             // body
		[]string{defaultActionKey, "Open"}, // actions
		map[string]dbus.Variant{},          // hints
		int32(-1))                          // expire_timeout -- -1 leaves it to the server

	if call.Err != nil {
		level.Error(d.logger).Log("msg", "could not send notification via dbus", "err", call.Err)
		return fmt.Errorf("could not send notification via dbus: %w", call.Err)
	}

	// Save the notification ID from the response so clicks can be attributed to us and
	// routed to the notification's own target
	var notificationId uint32
	if err := call.Store(&notificationId); err != nil {
		level.Warn(d.logger).Log("msg", "could not get notification ID from dbus call", "err", err)
	} else {
		d.lock.Lock()
		defer d.lock.Unlock()
		d.sentNotificationIds[notificationId] = n.Route
	}

	return nil
}

func notifySendArgs(n devicenotify.Notification) []string {
	args := []string{"--app-name", appName}
	if n.Icon != "" {
		args = append(args, "-i", n.Icon)
	}

	return append(args, n.Title, n.Body)
}

func (d *dbusNotifier) sendNotificationViaNotifySend(ctx context.Context, n devicenotify.Notification) error {
	notifySend, err := d.lookPath("notify-send")
	if err != nil {
		level.Debug(d.logger).Log("msg", "notify-send not installed", "err", err)
		return fmt.Errorf("notify-send not installed: %w", err)
	}

	cmd := exec.CommandContext(ctx, notifySend, notifySendArgs(n)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		level.Error(d.logger).Log("msg", "could not send notification via notify-send", "output", string(out), "err", err)
		return fmt.Errorf("could not send notification via notify-send: %s: %w", string(out), err)
	}

	return nil
}

func (d *dbusNotifier) Listen() error {
	if d.conn != nil {
		if err := d.conn.AddMatchSignal(
			dbus.WithMatchObjectPath(notificationServiceObj),
			dbus.WithMatchInterface(notificationServiceInterface),
		); err != nil {
			level.Error(d.logger).Log("msg", "couldn't add match signal", "err", err)
			return fmt.Errorf("couldn't register to listen to signals in dbus: %w", err)
		}
		d.conn.Signal(d.signal)
	} else {
		level.Warn(d.logger).Log("msg", "cannot set up DBUS listener -- no connection to session bus")
	}

	for {
		select {
		case signal := <-d.signal:
			if signal == nil || signal.Name != signalActionInvoked || len(signal.Body) < 2 {
				continue
			}

			notificationId, ok := signal.Body[0].(uint32)
			if !ok {
				continue
			}
			route, sentByUs := d.routeFor(notificationId)
			if !sentByUs {
				continue
			}

			if actionKey, _ := signal.Body[1].(string); actionKey != defaultActionKey {
				level.Debug(d.logger).Log("msg", "ignoring unknown notification action", "action", actionKey)
				continue
			}

			d.notifyClicked(route)

		case <-d.interrupt:
			return nil
		}
	}
}

// routeFor reports the route of a notification this process sent.
func (d *dbusNotifier) routeFor(notificationId uint32) (string, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	route, found := d.sentNotificationIds[notificationId]
	return route, found
}

func (d *dbusNotifier) Interrupt(err error) {
	select {
	case d.interrupt <- struct{}{}:
	default:
	}

	if d.conn == nil {
		return
	}

	d.conn.RemoveSignal(d.signal)
	d.conn.RemoveMatchSignal(
		dbus.WithMatchObjectPath(notificationServiceObj),
		dbus.WithMatchInterface(notificationServiceInterface),
	)
}
